package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"service-enrollment/internal/domain"
	"service-enrollment/internal/requestctx"
	"service-enrollment/internal/service"
)

type AdminHandler struct {
	service *service.AdminService
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{service: svc}
}

func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/users", h.handleListUsers)
	mux.HandleFunc("POST /admin/users", h.handleCreateUser)
	mux.HandleFunc("DELETE /admin/users/{id}", h.handleDeleteUser)
	mux.HandleFunc("GET /admin/courses", h.handleListCourses)
	mux.HandleFunc("POST /admin/courses", h.handleCreateCourse)
	mux.HandleFunc("PUT /admin/courses/{id}", h.handleUpdateCourse)
	mux.HandleFunc("DELETE /admin/courses/{id}", h.handleDeleteCourse)
	mux.HandleFunc("GET /admin/enrollments", h.handleListEnrollments)
	mux.HandleFunc("POST /admin/enrollments", h.handleCreateEnrollment)
	mux.HandleFunc("PUT /admin/enrollments/{id}", h.handleUpdateEnrollment)
	mux.HandleFunc("DELETE /admin/enrollments/{id}", h.handleDeleteEnrollment)
}

type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func toUserView(user domain.User) userView {
	return userView{
		ID:       user.ID.String(),
		Username: user.Username,
		FullName: user.FullName,
		Role:     string(user.Role),
	}
}

func (h *AdminHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context(), requestctx.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	views := make([]userView, 0, len(users))
	for _, user := range users {
		views = append(views, toUserView(user))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": views})
}

type createUserRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (h *AdminHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	role := domain.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	user, err := h.service.CreateUser(r.Context(), requestctx.IdentityFromContext(r.Context()), req.Username, req.FullName, role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserView(user))
}

func (h *AdminHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.service.DeleteUser(r.Context(), requestctx.IdentityFromContext(r.Context()), userID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.ListCourses(r.Context(), requestctx.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"courses": toCourseViews(courses)})
}

type createCourseRequest struct {
	CourseName string `json:"course_name"`
	TeacherID  string `json:"teacher_id"`
	Time       string `json:"time"`
	Capacity   int    `json:"capacity"`
}

func (req createCourseRequest) input() (service.CourseInput, bool) {
	teacherID, ok := parseID(req.TeacherID)
	if !ok {
		return service.CourseInput{}, false
	}
	return service.CourseInput{
		Name:      req.CourseName,
		TeacherID: teacherID,
		Schedule:  req.Time,
		Capacity:  req.Capacity,
	}, true
}

func toAdminCourseView(course domain.Course) courseView {
	return courseView{
		ID:         course.ID.String(),
		CourseName: course.Name,
		Time:       course.Schedule,
		Capacity:   course.Capacity,
	}
}

func (h *AdminHandler) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	input, ok := req.input()
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid teacher ID")
		return
	}

	course, err := h.service.CreateCourse(r.Context(), requestctx.IdentityFromContext(r.Context()), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAdminCourseView(course))
}

func (h *AdminHandler) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	courseID, ok := parseID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid course ID")
		return
	}
	var req createCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	input, ok := req.input()
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid teacher ID")
		return
	}

	course, err := h.service.UpdateCourse(r.Context(), requestctx.IdentityFromContext(r.Context()), courseID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAdminCourseView(course))
}

func (h *AdminHandler) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID, ok := parseID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	if err := h.service.DeleteCourse(r.Context(), requestctx.IdentityFromContext(r.Context()), courseID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type enrollmentView struct {
	ID        string  `json:"id"`
	StudentID string  `json:"student_id"`
	CourseID  string  `json:"course_id"`
	Grade     float64 `json:"grade"`
}

func toEnrollmentView(enrollment domain.Enrollment) enrollmentView {
	return enrollmentView{
		ID:        enrollment.ID.String(),
		StudentID: enrollment.StudentID.String(),
		CourseID:  enrollment.CourseID.String(),
		Grade:     enrollment.Grade,
	}
}

func (h *AdminHandler) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.service.ListEnrollments(r.Context(), requestctx.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	views := make([]enrollmentView, 0, len(enrollments))
	for _, enrollment := range enrollments {
		views = append(views, toEnrollmentView(enrollment))
	}
	writeJSON(w, http.StatusOK, map[string]any{"enrollments": views})
}

type createEnrollmentRequest struct {
	StudentID string `json:"student_id"`
	CourseID  string `json:"course_id"`
}

func (h *AdminHandler) handleCreateEnrollment(w http.ResponseWriter, r *http.Request) {
	var req createEnrollmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	studentID, ok := parseID(req.StudentID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid student ID")
		return
	}
	courseID, ok := parseID(req.CourseID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	enrollment, err := h.service.CreateEnrollment(r.Context(), requestctx.IdentityFromContext(r.Context()), studentID, courseID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEnrollmentView(enrollment))
}

type updateEnrollmentRequest struct {
	Grade json.RawMessage `json:"grade"`
}

func (h *AdminHandler) handleUpdateEnrollment(w http.ResponseWriter, r *http.Request) {
	enrollmentID, ok := parseID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid enrollment ID")
		return
	}
	var req updateEnrollmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	enrollment, err := h.service.UpdateEnrollmentGrade(r.Context(), requestctx.IdentityFromContext(r.Context()), enrollmentID, gradeText(req.Grade))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEnrollmentView(enrollment))
}

func (h *AdminHandler) handleDeleteEnrollment(w http.ResponseWriter, r *http.Request) {
	enrollmentID, ok := parseID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid enrollment ID")
		return
	}

	if err := h.service.DeleteEnrollment(r.Context(), requestctx.IdentityFromContext(r.Context()), enrollmentID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
