package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/heartmarshall/commonprayer-backend/pkg/ctxutil"
)

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	anon := context.Background()
	reader := ctxutil.WithRole(ctxutil.WithSubject(anon, "reader-1"), "reader")
	admin := ctxutil.WithRole(ctxutil.WithSubject(anon, "ops"), ctxutil.RoleAdmin)

	assert.ErrorIs(t, RequireAdmin(anon), domain.ErrUnauthorized)
	assert.ErrorIs(t, RequireAdmin(reader), domain.ErrForbidden)
	assert.NoError(t, RequireAdmin(admin))
}

func TestAdminOnly_StatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		subject string
		role    string
		want    int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "non-admin", subject: "reader-1", role: "reader", want: http.StatusForbidden},
		{name: "admin", subject: "ops", role: ctxutil.RoleAdmin, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := AdminOnly()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodPost, "/admin/toc/reload", nil)
			if tt.subject != "" {
				ctx := ctxutil.WithRole(ctxutil.WithSubject(req.Context(), tt.subject), tt.role)
				req = req.WithContext(ctx)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
