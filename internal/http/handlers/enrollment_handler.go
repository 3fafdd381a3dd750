package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"service-enrollment/internal/domain"
	"service-enrollment/internal/requestctx"
	"service-enrollment/internal/service"
)

type EnrollmentHandler struct {
	service *service.EnrollmentService
}

func NewEnrollmentHandler(svc *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

func (h *EnrollmentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/enroll", h.handleEnroll)
	mux.HandleFunc("POST /api/unenroll", h.handleUnenroll)
	mux.HandleFunc("POST /api/update_grade", h.handleUpdateGrade)
	mux.HandleFunc("GET /api/student/courses", h.handleStudentCourses)
	mux.HandleFunc("GET /api/teacher/courses", h.handleTeacherCourses)
	mux.HandleFunc("GET /api/teacher/courses/{id}", h.handleCourseRoster)
}

type courseRequest struct {
	CourseID string `json:"course_id"`
}

type enrollResponse struct {
	successResponse
	EnrollmentID string `json:"enrollment_id"`
}

func (h *EnrollmentHandler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	courseID, ok := parseID(req.CourseID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	enrollment, err := h.service.Enroll(r.Context(), requestctx.IdentityFromContext(r.Context()), courseID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, enrollResponse{
		successResponse: successResponse{Success: true, Message: "Enrolled successfully"},
		EnrollmentID:    enrollment.ID.String(),
	})
}

func (h *EnrollmentHandler) handleUnenroll(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	courseID, ok := parseID(req.CourseID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	if err := h.service.Unenroll(r.Context(), requestctx.IdentityFromContext(r.Context()), courseID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Unenrolled successfully"})
}

type updateGradeRequest struct {
	EnrollmentID string          `json:"enrollment_id"`
	Grade        json.RawMessage `json:"grade"`
}

func (h *EnrollmentHandler) handleUpdateGrade(w http.ResponseWriter, r *http.Request) {
	var req updateGradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	enrollmentID, ok := parseID(req.EnrollmentID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid enrollment ID")
		return
	}

	_, err := h.service.UpdateGrade(r.Context(), requestctx.IdentityFromContext(r.Context()), enrollmentID, gradeText(req.Grade))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Grade updated"})
}

// gradeText accepts the grade as a JSON number or a JSON string. Anything
// else yields text the grade parser rejects.
func gradeText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return ""
		}
		return text
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return ""
	}
	return number.String()
}

type courseView struct {
	ID         string `json:"id"`
	CourseName string `json:"course_name"`
	Teacher    string `json:"teacher"`
	Time       string `json:"time"`
	Enrolled   int    `json:"enrolled"`
	Capacity   int    `json:"capacity"`
	IsFull     *bool  `json:"is_full,omitempty"`
	IsEnrolled *bool  `json:"is_enrolled,omitempty"`
}

func toCourseView(course domain.CourseSummary) courseView {
	return courseView{
		ID:         course.ID.String(),
		CourseName: course.Name,
		Teacher:    course.TeacherName,
		Time:       course.Schedule,
		Enrolled:   course.Enrolled,
		Capacity:   course.Capacity,
	}
}

func toCourseViews(courses []domain.CourseSummary) []courseView {
	views := make([]courseView, 0, len(courses))
	for _, course := range courses {
		views = append(views, toCourseView(course))
	}
	return views
}

type studentCoursesResponse struct {
	MyCourses        []courseView `json:"my_courses"`
	AvailableCourses []courseView `json:"available_courses"`
}

func (h *EnrollmentHandler) handleStudentCourses(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.StudentOverview(r.Context(), requestctx.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	available := make([]courseView, 0, len(overview.Available))
	for _, course := range overview.Available {
		view := toCourseView(course.CourseSummary)
		isFull, isEnrolled := course.IsFull, course.IsEnrolled
		view.IsFull = &isFull
		view.IsEnrolled = &isEnrolled
		available = append(available, view)
	}

	writeJSON(w, http.StatusOK, studentCoursesResponse{
		MyCourses:        toCourseViews(overview.MyCourses),
		AvailableCourses: available,
	})
}

func (h *EnrollmentHandler) handleTeacherCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.TeacherCourses(r.Context(), requestctx.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"courses": toCourseViews(courses)})
}

type rosterStudent struct {
	EnrollmentID string  `json:"enrollment_id"`
	StudentName  string  `json:"student_name"`
	Grade        float64 `json:"grade"`
}

type rosterResponse struct {
	CourseID   string          `json:"course_id"`
	CourseName string          `json:"course_name"`
	Time       string          `json:"time"`
	Capacity   int             `json:"capacity"`
	Students   []rosterStudent `json:"students"`
}

func (h *EnrollmentHandler) handleCourseRoster(w http.ResponseWriter, r *http.Request) {
	courseID, ok := parseID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	course, roster, err := h.service.CourseRoster(r.Context(), requestctx.IdentityFromContext(r.Context()), courseID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	students := make([]rosterStudent, 0, len(roster))
	for _, entry := range roster {
		students = append(students, rosterStudent{
			EnrollmentID: entry.EnrollmentID.String(),
			StudentName:  entry.StudentName,
			Grade:        entry.Grade,
		})
	}

	writeJSON(w, http.StatusOK, rosterResponse{
		CourseID:   course.ID.String(),
		CourseName: course.Name,
		Time:       course.Schedule,
		Capacity:   course.Capacity,
		Students:   students,
	})
}
