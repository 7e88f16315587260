package http

import (
	"net/http"
	"path"
	"strings"

	"github.com/geopunch/attendance-backend/internal/domain/user"
	"github.com/geopunch/attendance-backend/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

// photoServer serves punch photos stored as
// punches/<company_id>/<date>/<employee_id>-<type>-<uuid>.jpg.
// Callers only see their own company's photos; employees only their own.
type photoServer struct {
	root http.FileSystem
}

func newPhotoServer(dir string) http.Handler {
	return photoServer{root: http.Dir(dir)}
}

func (s photoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "Authentication required")
		return
	}
	companyID, _ := claims["company_id"].(string)
	employeeID, _ := claims["employee_id"].(string)
	role, _ := claims["role"].(string)

	name := path.Clean("/" + chi.URLParam(r, "*"))
	parts := strings.Split(strings.TrimPrefix(name, "/"), "/")
	if len(parts) != 4 || parts[0] != "punches" || parts[1] != companyID {
		response.NotFound(w, "File not found")
		return
	}
	if !user.HasPermission(user.Role(role), user.PermissionAttendanceViewAll) {
		if employeeID == "" || !strings.HasPrefix(parts[3], employeeID+"-") {
			response.NotFound(w, "File not found")
			return
		}
	}

	f, err := s.root.Open(name)
	if err != nil {
		response.NotFound(w, "File not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		response.NotFound(w, "File not found")
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
