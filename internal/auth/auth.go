package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/talkincode/storepro/internal/domain"
	"github.com/talkincode/storepro/pkg/common"
)

const (
	SessionName = "storepro_session"
	sessionUser = "username"
	sessionID   = "uid"

	// ContextUserKey holds the authenticated *domain.SysOpr in the echo context.
	ContextUserKey = "current_operator"
)

var (
	ErrLoginFailed   = errors.New("invalid username or password")
	ErrUserExists    = errors.New("username already exists")
	ErrInvalidInput  = errors.New("username must be 4-20 characters and password is required")
	ErrNotLoggedIn   = errors.New("not logged in")
	ErrUserDisabled  = errors.New("account is disabled")
	bcryptCost       = bcrypt.DefaultCost
	sessionMaxAgeSec = int((7 * 24 * time.Hour).Seconds())
)

// NewSessionStore creates the cookie store backing login sessions.
func NewSessionStore(secret string) sessions.Store {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAgeSec,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func HashPassword(password string) (string, error) {
	bs, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(bs), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Service authenticates operators against sys_opr
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func validCredentials(username, password string) bool {
	n := len(username)
	return n >= 4 && n <= 20 && password != ""
}

// Authenticate checks the credentials and stamps last_login.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.SysOpr, error) {
	username = strings.TrimSpace(username)
	var opr domain.SysOpr
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&opr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLoginFailed
	}
	if err != nil {
		return nil, errors.Wrap(err, "query operator")
	}
	if !CheckPassword(opr.Password, password) {
		return nil, ErrLoginFailed
	}
	if opr.Status != common.ENABLED {
		return nil, ErrUserDisabled
	}
	opr.LastLogin = time.Now()
	if err := s.db.WithContext(ctx).Model(&domain.SysOpr{}).Where("id = ?", opr.ID).
		UpdateColumn("last_login", opr.LastLogin).Error; err != nil {
		return nil, errors.Wrap(err, "update last login")
	}
	return &opr, nil
}

// Register creates an enabled operator account.
func (s *Service) Register(ctx context.Context, username, password string) (*domain.SysOpr, error) {
	username = strings.TrimSpace(username)
	if !validCredentials(username, password) {
		return nil, ErrInvalidInput
	}
	var exists int64
	if err := s.db.WithContext(ctx).Model(&domain.SysOpr{}).Where("username = ?", username).Count(&exists).Error; err != nil {
		return nil, errors.Wrap(err, "query operator")
	}
	if exists > 0 {
		return nil, ErrUserExists
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	opr := &domain.SysOpr{
		ID:        common.UUIDint64(),
		Realname:  username,
		Username:  username,
		Password:  hashed,
		Level:     "operator",
		Status:    common.ENABLED,
		LastLogin: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(opr).Error; err != nil {
		return nil, errors.Wrap(err, "create operator")
	}
	return opr, nil
}

// FindByUsername resolves the identity stored in a session.
func (s *Service) FindByUsername(ctx context.Context, username string) (*domain.SysOpr, error) {
	var opr domain.SysOpr
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&opr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotLoggedIn
	}
	return &opr, errors.Wrap(err, "query operator")
}

// Login issues a session cookie for opr.
func Login(c echo.Context, opr *domain.SysOpr) error {
	// a cookie signed with an old secret still yields a fresh session
	sess, err := session.Get(SessionName, c)
	if sess == nil {
		return errors.Wrap(err, "load session")
	}
	sess.Values[sessionUser] = opr.Username
	sess.Values[sessionID] = opr.ID
	return sess.Save(c.Request(), c.Response())
}

// Logout expires the session cookie.
func Logout(c echo.Context) error {
	sess, _ := session.Get(SessionName, c)
	if sess == nil {
		return nil
	}
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// SessionUsername returns the username held by the request session or "".
func SessionUsername(c echo.Context) string {
	sess, err := session.Get(SessionName, c)
	if err != nil || sess == nil {
		return ""
	}
	name, _ := sess.Values[sessionUser].(string)
	return name
}

// CurrentOperator returns the operator attached by RequireLogin.
func CurrentOperator(c echo.Context) *domain.SysOpr {
	opr, _ := c.Get(ContextUserKey).(*domain.SysOpr)
	return opr
}

// CurrentUsername is "" for anonymous requests.
func CurrentUsername(c echo.Context) string {
	if opr := CurrentOperator(c); opr != nil {
		return opr.Username
	}
	return SessionUsername(c)
}

// RequireLogin rejects requests without a valid session.
func RequireLogin(svc *Service, onFail echo.HandlerFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			name := SessionUsername(c)
			if name == "" {
				return onFail(c)
			}
			opr, err := svc.FindByUsername(c.Request().Context(), name)
			if err != nil || opr.Status != common.ENABLED {
				return onFail(c)
			}
			c.Set(ContextUserKey, opr)
			return next(c)
		}
	}
}
