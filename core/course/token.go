package course

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

const (
	// TokenAudience is the fixed audience the session endpoint must verify.
	TokenAudience = "darasa.classroom"

	// tokens become valid at 06:00 UTC on the lesson date, for 6 hours
	tokenIssueHour = 6
	tokenValidity  = 6 * time.Hour
)

// AccessClaims represents the claims carried by a lesson access token.
type AccessClaims struct {
	jwt.StandardClaims
	CourseID string `json:"course_id"`
	LessonID string `json:"lesson_id"`
}

// TokenIssuer issues signed, time-windowed lesson access tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
}

func NewTokenIssuer(conf *core.Config) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(conf.SecretKey),
		issuer: conf.AppName,
	}
}

// Window returns the validity window of any token issued for a lesson on d:
// 06:00–12:00 UTC on the lesson date, independent of when Issue is called.
func Window(d Date) (notBefore, notAfter time.Time) {
	notBefore = time.Date(d.Year(), d.Month(), d.Day(), tokenIssueHour, 0, 0, 0, time.UTC)
	return notBefore, notBefore.Add(tokenValidity)
}

// Issue creates a signed HS256 token granting the student entry to one
// lesson's session. The embedded timestamps are a deterministic function of
// the lesson date, so regenerating a token never shifts its validity window.
func (ti *TokenIssuer) Issue(studentID, courseKey string, lessonNumber int, lessonDate Date) (string, error) {
	issuedAt, expiresAt := Window(lessonDate)

	claims := &AccessClaims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    ti.issuer,
			Subject:   studentID,
			Audience:  TokenAudience,
			IssuedAt:  issuedAt.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
		CourseID: courseKey,
		LessonID: strconv.Itoa(lessonNumber),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(ti.secret)
	return ss, errors.Wrap(err, "signing access token")
}

// ParseAccessToken verifies signature and expiry and returns the claims.
// Session verification proper lives in the external session endpoint; this is
// used by tests and diagnostics.
func (ti *TokenIssuer) ParseAccessToken(tokenStr string) (*AccessClaims, error) {
	claims := new(AccessClaims)
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parsing access token")
	}
	if !claims.VerifyAudience(TokenAudience, true) {
		return nil, errors.New("invalid token audience")
	}
	return claims, nil
}
