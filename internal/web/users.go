package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/biblioteca/internal/auth"
	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/store"
)

func (s *Server) renderUsers(w http.ResponseWriter, r *http.Request, status int, errs ...string) {
	users, err := store.ListUsers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		errs = append(errs, "No se pudo cargar la lista de usuarios.")
	}

	pd := s.page(r, "Usuarios")
	pd.Errors = errs
	s.Templates.RenderStatus(w, status, "users.html", &struct {
		PageData
		Users []model.User
		Roles []string
	}{
		PageData: pd,
		Users:    users,
		Roles:    []string{model.RoleLibrarian, model.RoleAdmin},
	})
}

// UsersPage handles GET /users (admin only).
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	s.renderUsers(w, r, http.StatusOK)
}

// UserCreateSubmit handles POST /users (admin only).
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	role := r.FormValue("role")

	if username == "" || !model.ValidRole(role) {
		s.renderUsers(w, r, http.StatusBadRequest, "Ingrese un usuario y un rol válidos.")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		s.renderUsers(w, r, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := store.GetUserByUsername(r.Context(), s.DB, username)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Error al crear el usuario.")
		return
	}
	if existing != nil {
		s.renderUsers(w, r, http.StatusConflict, "El usuario ya existe.")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Error al crear el usuario.")
		return
	}
	if _, err := store.CreateUser(r.Context(), s.DB, username, hash, role); err != nil {
		slog.Error("failed to create user", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Error al crear el usuario.")
		return
	}

	slog.Info("user created", "user", claims.Username, "new_user", username, "role", role)
	done(w, r, "/users", "created")
}

// UserResetPasswordSubmit handles POST /users/{id}/password (admin only).
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	newPassword := r.FormValue("new_password")
	if err := model.ValidatePassword(newPassword); err != nil {
		s.renderUsers(w, r, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Error al cambiar la contraseña.")
		return
	}
	if err := store.UpdateUserPassword(r.Context(), s.DB, id, hash); err != nil {
		slog.Error("failed to update password", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Error al cambiar la contraseña.")
		return
	}

	slog.Info("password reset", "user", claims.Username, "target_id", id)
	done(w, r, "/users", "password")
}

// UserUpdateRoleSubmit handles POST /users/{id}/role (admin only).
func (s *Server) UserUpdateRoleSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	role := r.FormValue("role")
	if !model.ValidRole(role) {
		s.renderUsers(w, r, http.StatusBadRequest, "Rol no válido.")
		return
	}
	if id == claims.UserID {
		s.renderUsers(w, r, http.StatusBadRequest, "No puede cambiar su propio rol.")
		return
	}

	if err := store.UpdateUser(r.Context(), s.DB, id, role); err != nil {
		slog.Error("failed to update role", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Error al cambiar el rol.")
		return
	}

	slog.Info("role updated", "user", claims.Username, "target_id", id, "role", role)
	done(w, r, "/users", "updated")
}

// UserDeleteSubmit handles POST /users/{id}/delete (admin only).
func (s *Server) UserDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if id == claims.UserID {
		s.renderUsers(w, r, http.StatusBadRequest, "No puede eliminar su propia cuenta.")
		return
	}

	if err := store.DeleteUser(r.Context(), s.DB, id); err != nil {
		slog.Error("failed to delete user", "error", err)
		s.renderUsers(w, r, http.StatusInternalServerError, "Error al eliminar el usuario.")
		return
	}

	slog.Info("user deleted", "user", claims.Username, "target_id", id)
	done(w, r, "/users", "deleted")
}

type settingsData struct {
	PageData
	LoanDays string
}

func (s *Server) renderSettings(w http.ResponseWriter, r *http.Request, status int, errs ...string) {
	days, err := store.GetSetting(r.Context(), s.DB, store.SettingLoanDays)
	if err != nil {
		slog.Error("failed to read setting", "error", err)
	}
	pd := s.page(r, "Configuración")
	pd.Errors = errs
	s.Templates.RenderStatus(w, status, "settings.html", &settingsData{PageData: pd, LoanDays: days})
}

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	s.renderSettings(w, r, http.StatusOK)
}

// SettingsSubmit handles POST /settings (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	if currentPassword == "" || newPassword == "" {
		s.renderSettings(w, r, http.StatusBadRequest, "Ingrese la contraseña actual y la nueva.")
		return
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		s.renderSettings(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		slog.Error("failed to load user", "user_id", claims.UserID, "error", err)
		s.renderSettings(w, r, http.StatusInternalServerError, "Error al obtener el usuario.")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, currentPassword) {
		s.renderSettings(w, r, http.StatusBadRequest, "La contraseña actual no es correcta.")
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err == nil {
		err = store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, hash)
	}
	if err != nil {
		slog.Error("failed to update password", "error", err)
		s.renderSettings(w, r, http.StatusInternalServerError, "Error al guardar la contraseña.")
		return
	}

	slog.Info("password changed", "user", claims.Username)
	done(w, r, "/settings", "password")
}

// LoanSettingsSubmit handles POST /settings/loans (admin only). An empty
// value clears the default loan length.
func (s *Server) LoanSettingsSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	days := strings.TrimSpace(r.FormValue("loan_days"))
	if days != "" {
		if n, err := strconv.Atoi(days); err != nil || n < 1 || n > 365 {
			s.renderSettings(w, r, http.StatusBadRequest, "Los días de préstamo deben estar entre 1 y 365.")
			return
		}
	}

	if err := store.SetSetting(r.Context(), s.DB, store.SettingLoanDays, days); err != nil {
		slog.Error("failed to save setting", "error", err)
		s.renderSettings(w, r, http.StatusInternalServerError, "Error al guardar la configuración.")
		return
	}

	slog.Info("loan days updated", "user", claims.Username, "days", days)
	done(w, r, "/settings", "updated")
}
