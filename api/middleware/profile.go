package middleware

import (
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/uchsash/medistore/pkg/logger"
)

const (
	profileHeader = "X-Profile-Id"
	ProfileCookie = "medistore_profile"

	profileCookieMaxAge = 365 * 24 * time.Hour
)

var profilePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Profile scopes every request to one cart profile. The id comes from the
// X-Profile-Id header, then the profile cookie; a fresh id is issued as a
// cookie when neither is usable.
func Profile(logg *logger.Logger, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profileID := r.Header.Get(profileHeader)
			if !profilePattern.MatchString(profileID) {
				profileID = ""
				if c, err := r.Cookie(ProfileCookie); err == nil && profilePattern.MatchString(c.Value) {
					profileID = c.Value
				}
			}
			if profileID == "" {
				profileID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     ProfileCookie,
					Value:    profileID,
					Path:     "/",
					MaxAge:   int(profileCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(profileHeader, profileID)

			ctx := WithProfileID(r.Context(), profileID)
			if logg != nil {
				ctx = logg.WithProfileID(ctx, profileID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
