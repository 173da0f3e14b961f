package auth

import (
	"net/http"
	"strings"
)

// Rule 路由守卫规则：路径前缀 → 允许的角色集合
//
// Roles 为空表示任意已登录用户。规则按声明顺序匹配，命中即停。
type Rule struct {
	Prefix string
	Roles  []string
}

// Guard 路由守卫
//
// 守卫只看令牌和角色，不回源查询用户状态；令牌签发后账户被停用的
// 情况要等令牌过期才生效，属于快照式会话的已知权衡。
type Guard struct {
	cfg    Config
	public []string
	rules  []Rule
}

// NewGuard 创建路由守卫
//
// public 内的前缀直接放行；其余路径按 rules 顺序匹配，
// 未被任何规则覆盖的路径默认要求登录。
func NewGuard(cfg Config, public []string, rules []Rule) *Guard {
	return &Guard{cfg: cfg, public: public, rules: rules}
}

// Middleware 包装下游 handler，完成令牌校验与角色检查
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		for _, p := range g.public {
			if matchPrefix(path, p) {
				next.ServeHTTP(w, r)
				return
			}
		}

		user, err := g.authenticate(r)
		if err != nil {
			g.rejectUnauthenticated(w, r)
			return
		}

		if rule, ok := g.match(path); ok && len(rule.Roles) > 0 {
			if !containsRole(rule.Roles, user.Role) {
				// 角色不符跳转到中性首页，而不是登录页：
				// 用户已登录，再让其登录解决不了权限问题
				g.rejectForbidden(w, r)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), user)))
	})
}

// authenticate 从 Cookie 或 Authorization 头取令牌并校验
func (g *Guard) authenticate(r *http.Request) (*AuthUser, error) {
	token := ""
	if c, err := r.Cookie(SessionCookieName); err == nil {
		token = c.Value
	}
	if token == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
	}
	if token == "" {
		return nil, ErrNotFound
	}
	claims, err := ValidateToken(g.cfg, token)
	if err != nil {
		return nil, err
	}
	return UserFromClaims(claims), nil
}

// match 返回第一条前缀命中的规则
func (g *Guard) match(path string) (Rule, bool) {
	for _, rule := range g.rules {
		if matchPrefix(path, rule.Prefix) {
			return rule, true
		}
	}
	return Rule{}, false
}

// matchPrefix 前缀匹配；"/" 只精确匹配根路径，否则会放行一切
func matchPrefix(path, prefix string) bool {
	if prefix == "/" {
		return path == "/"
	}
	return strings.HasPrefix(path, prefix)
}

// rejectUnauthenticated 未登录：API 请求回 401 JSON，页面导航重定向到登录页
func (g *Guard) rejectUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized",
			"กรุณาเข้าสู่ระบบก่อนใช้งาน")
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// rejectForbidden 已登录但角色不符：API 请求回 403，页面导航重定向到首页
func (g *Guard) rejectForbidden(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeError(w, http.StatusForbidden, "forbidden",
			"คุณไม่มีสิทธิ์เข้าถึงส่วนนี้")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// wantsJSON 判断请求方是 API 客户端还是浏览器导航
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/ws/") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json")
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// RequireRole 单个接口级别的角色断言，用在守卫之后的具体 handler 上
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetAuthUser(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized",
					"กรุณาเข้าสู่ระบบก่อนใช้งาน")
				return
			}
			if !containsRole(roles, user.Role) {
				writeError(w, http.StatusForbidden, "forbidden",
					"คุณไม่มีสิทธิ์เข้าถึงส่วนนี้")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
