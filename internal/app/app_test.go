package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"service-enrollment/internal/domain"
	"service-enrollment/internal/repository"
	"service-enrollment/internal/schedule"
	"service-enrollment/internal/testkit"
)

func newTestApp(t *testing.T) (*testkit.DB, http.Handler) {
	t.Helper()

	db := testkit.OpenSQLite(t)
	application := New(db.SQL, Options{
		Dialect:        repository.DialectSQLite,
		StorageTimeout: 5 * time.Second,
		ConflictPolicy: schedule.FailOpen,
	}, zap.NewNop())
	return db, application.Handler()
}

func do(t *testing.T, handler http.Handler, method, path string, userID uuid.UUID, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != uuid.Nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()

	if err := json.NewDecoder(rec.Body).Decode(target); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	_, handler := newTestApp(t)
	rec := do(t, handler, http.MethodGet, "/healthz", uuid.Nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequestsWithoutIdentityAreRejected(t *testing.T) {
	t.Parallel()

	_, handler := newTestApp(t)

	if rec := do(t, handler, http.MethodGet, "/api/student/courses", uuid.Nil, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing header status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if rec := do(t, handler, http.MethodGet, "/api/student/courses", uuid.New(), ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/student/courses", nil)
	req.Header.Set("X-User-ID", "not-a-uuid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed header status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestEnrollFlowOverHTTP(t *testing.T) {
	t.Parallel()

	db, handler := newTestApp(t)
	teacher := db.User(t, domain.RoleTeacher, "Susan Walker")
	student := db.User(t, domain.RoleStudent, "Mindy Cheng")
	physics := db.Course(t, teacher.ID, "Physics 121", "TR 11:00-11:50 AM", 10)
	overlap := db.Course(t, teacher.ID, "Physics Lab", "TR 11:30 AM-12:20 PM", 10)

	rec := do(t, handler, http.MethodPost, "/api/enroll", student.ID, `{"course_id":"`+physics.ID.String()+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("enroll status = %d, body %s", rec.Code, rec.Body.String())
	}
	var enrolled struct {
		Success      bool   `json:"success"`
		EnrollmentID string `json:"enrollment_id"`
	}
	decodeBody(t, rec, &enrolled)
	if !enrolled.Success || enrolled.EnrollmentID == "" {
		t.Fatalf("enroll response = %+v", enrolled)
	}

	rec = do(t, handler, http.MethodPost, "/api/enroll", student.ID, `{"course_id":"`+physics.ID.String()+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate enroll status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = do(t, handler, http.MethodPost, "/api/enroll", student.ID, `{"course_id":"`+overlap.ID.String()+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("conflicting enroll status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var failure struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &failure)
	if failure.Error != "Time conflict with Physics 121" {
		t.Fatalf("conflict error = %q, want %q", failure.Error, "Time conflict with Physics 121")
	}

	rec = do(t, handler, http.MethodGet, "/api/student/courses", student.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("student courses status = %d", rec.Code)
	}
	var overview struct {
		MyCourses []struct {
			CourseName string `json:"course_name"`
			Enrolled   int    `json:"enrolled"`
		} `json:"my_courses"`
		AvailableCourses []struct {
			CourseName string `json:"course_name"`
			IsEnrolled *bool  `json:"is_enrolled"`
		} `json:"available_courses"`
	}
	decodeBody(t, rec, &overview)
	if len(overview.MyCourses) != 1 || overview.MyCourses[0].CourseName != "Physics 121" || overview.MyCourses[0].Enrolled != 1 {
		t.Fatalf("my courses = %+v", overview.MyCourses)
	}
	if len(overview.AvailableCourses) != 2 {
		t.Fatalf("available courses = %d, want 2", len(overview.AvailableCourses))
	}

	rec = do(t, handler, http.MethodPost, "/api/unenroll", student.ID, `{"course_id":"`+physics.ID.String()+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unenroll status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = do(t, handler, http.MethodPost, "/api/unenroll", student.ID, `{"course_id":"`+physics.ID.String()+`"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second unenroll status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUpdateGradeOverHTTP(t *testing.T) {
	t.Parallel()

	db, handler := newTestApp(t)
	owner := db.User(t, domain.RoleTeacher, "Ammon Hepworth")
	other := db.User(t, domain.RoleTeacher, "Ralph Jenkins")
	student := db.User(t, domain.RoleStudent, "Aditya Ranganath")
	course := db.Course(t, owner.ID, "CS 106", "MWF 2:00-2:50 PM", 10)
	enrollment := db.Enrollment(t, student.ID, course.ID, 0)

	tests := []struct {
		name   string
		actor  uuid.UUID
		body   string
		status int
	}{
		{name: "numeric grade", actor: owner.ID, body: `{"enrollment_id":"` + enrollment.ID.String() + `","grade":91.5}`, status: http.StatusOK},
		{name: "string grade", actor: owner.ID, body: `{"enrollment_id":"` + enrollment.ID.String() + `","grade":"88"}`, status: http.StatusOK},
		{name: "invalid grade", actor: owner.ID, body: `{"enrollment_id":"` + enrollment.ID.String() + `","grade":"abc"}`, status: http.StatusBadRequest},
		{name: "non owner", actor: other.ID, body: `{"enrollment_id":"` + enrollment.ID.String() + `","grade":70}`, status: http.StatusForbidden},
		{name: "student", actor: student.ID, body: `{"enrollment_id":"` + enrollment.ID.String() + `","grade":100}`, status: http.StatusForbidden},
		{name: "unknown enrollment", actor: owner.ID, body: `{"enrollment_id":"` + uuid.NewString() + `","grade":70}`, status: http.StatusNotFound},
		{name: "unknown field", actor: owner.ID, body: `{"enrollment_id":"` + enrollment.ID.String() + `","score":70}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		rec := do(t, handler, http.MethodPost, "/api/update_grade", tt.actor, tt.body)
		if rec.Code != tt.status {
			t.Fatalf("%s: status = %d, want %d (body %s)", tt.name, rec.Code, tt.status, rec.Body.String())
		}
	}

	got, ok := db.FindEnrollment(t, student.ID, course.ID)
	if !ok {
		t.Fatal("enrollment missing after grade updates")
	}
	if got.Grade != 88 {
		t.Fatalf("grade = %v, want 88", got.Grade)
	}

	rec := do(t, handler, http.MethodGet, "/api/teacher/courses/"+course.ID.String(), owner.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("roster status = %d", rec.Code)
	}
	var roster struct {
		CourseName string `json:"course_name"`
		Students   []struct {
			StudentName string  `json:"student_name"`
			Grade       float64 `json:"grade"`
		} `json:"students"`
	}
	decodeBody(t, rec, &roster)
	if len(roster.Students) != 1 || roster.Students[0].StudentName != "Aditya Ranganath" || roster.Students[0].Grade != 88 {
		t.Fatalf("roster = %+v", roster)
	}

	if rec := do(t, handler, http.MethodGet, "/api/teacher/courses/"+course.ID.String(), other.ID, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign roster status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestAdminEndpoints(t *testing.T) {
	t.Parallel()

	db, handler := newTestApp(t)
	admin := db.User(t, domain.RoleAdmin, "Registrar")
	teacher := db.User(t, domain.RoleTeacher, "Susan Walker")
	student := db.User(t, domain.RoleStudent, "Nancy Little")

	rec := do(t, handler, http.MethodPost, "/admin/courses", admin.ID,
		`{"course_name":"Physics 122","teacher_id":"`+teacher.ID.String()+`","time":"TR 1:00-1:50 PM","capacity":12}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create course status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &created)

	rec = do(t, handler, http.MethodPost, "/admin/courses", admin.ID,
		`{"course_name":"Bad","teacher_id":"`+student.ID.String()+`","time":"MWF 9:00-9:50 AM","capacity":12}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("student as teacher status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	if rec := do(t, handler, http.MethodGet, "/admin/courses", student.ID, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("student admin access status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec = do(t, handler, http.MethodPost, "/admin/users", admin.ID, `{"username":"nlittle2","full_name":"Nora Little","role":"student"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = do(t, handler, http.MethodPost, "/admin/users", admin.ID, `{"username":"nlittle2","full_name":"Nora Little","role":"student"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate user status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = do(t, handler, http.MethodPost, "/api/enroll", student.ID, `{"course_id":"`+created.ID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("enroll status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, handler, http.MethodGet, "/admin/enrollments", admin.ID, "")
	var listed struct {
		Enrollments []json.RawMessage `json:"enrollments"`
	}
	decodeBody(t, rec, &listed)
	if len(listed.Enrollments) != 1 {
		t.Fatalf("enrollments = %d, want 1", len(listed.Enrollments))
	}

	if rec := do(t, handler, http.MethodDelete, "/admin/courses/"+created.ID, admin.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete course status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec := do(t, handler, http.MethodDelete, "/admin/courses/"+created.ID, admin.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if _, ok := db.FindEnrollment(t, student.ID, uuid.MustParse(created.ID)); ok {
		t.Fatal("enrollment survived course deletion")
	}
}

func TestAdminEnrollmentEndpoints(t *testing.T) {
	t.Parallel()

	db, handler := newTestApp(t)
	admin := db.User(t, domain.RoleAdmin, "Registrar")
	teacher := db.User(t, domain.RoleTeacher, "Susan Walker")
	student := db.User(t, domain.RoleStudent, "Nancy Little")
	other := db.User(t, domain.RoleStudent, "Aditya Ranganath")
	math := db.Course(t, teacher.ID, "Math 101", "MWF 10:00-10:50 AM", 1)
	stats := db.Course(t, teacher.ID, "Stats 110", "MWF 10:30-11:20 AM", 5)

	enrollBody := func(studentID, courseID uuid.UUID) string {
		return `{"student_id":"` + studentID.String() + `","course_id":"` + courseID.String() + `"}`
	}

	rec := do(t, handler, http.MethodPost, "/admin/enrollments", admin.ID, enrollBody(student.ID, math.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create enrollment status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID    string  `json:"id"`
		Grade float64 `json:"grade"`
	}
	decodeBody(t, rec, &created)

	tests := []struct {
		name   string
		actor  uuid.UUID
		body   string
		status int
	}{
		{name: "duplicate", actor: admin.ID, body: enrollBody(student.ID, math.ID), status: http.StatusBadRequest},
		{name: "full", actor: admin.ID, body: enrollBody(other.ID, math.ID), status: http.StatusBadRequest},
		{name: "time conflict", actor: admin.ID, body: enrollBody(student.ID, stats.ID), status: http.StatusBadRequest},
		{name: "teacher as student", actor: admin.ID, body: enrollBody(teacher.ID, stats.ID), status: http.StatusBadRequest},
		{name: "unknown course", actor: admin.ID, body: enrollBody(other.ID, uuid.New()), status: http.StatusNotFound},
		{name: "malformed student", actor: admin.ID, body: `{"student_id":"x","course_id":"` + stats.ID.String() + `"}`, status: http.StatusBadRequest},
		{name: "not admin", actor: teacher.ID, body: enrollBody(other.ID, stats.ID), status: http.StatusForbidden},
	}
	for _, tt := range tests {
		rec := do(t, handler, http.MethodPost, "/admin/enrollments", tt.actor, tt.body)
		if rec.Code != tt.status {
			t.Fatalf("%s: status = %d, want %d (body %s)", tt.name, rec.Code, tt.status, rec.Body.String())
		}
	}
	if got := db.EnrolledCount(t, math.ID); got != 1 {
		t.Fatalf("math enrolled = %d, want 1", got)
	}

	rec = do(t, handler, http.MethodPut, "/admin/enrollments/"+created.ID, admin.ID, `{"grade":"93.5"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("grade edit status = %d, body %s", rec.Code, rec.Body.String())
	}
	var graded struct {
		Grade float64 `json:"grade"`
	}
	decodeBody(t, rec, &graded)
	if graded.Grade != 93.5 {
		t.Fatalf("grade = %v, want 93.5", graded.Grade)
	}
	if rec := do(t, handler, http.MethodPut, "/admin/enrollments/"+created.ID, admin.ID, `{"grade":"A"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid grade status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if rec := do(t, handler, http.MethodPut, "/admin/enrollments/"+uuid.NewString(), admin.ID, `{"grade":70}`); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown enrollment grade status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	if rec := do(t, handler, http.MethodDelete, "/admin/enrollments/"+created.ID, admin.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete enrollment status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec := do(t, handler, http.MethodDelete, "/admin/enrollments/"+created.ID, admin.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := db.EnrolledCount(t, math.ID); got != 0 {
		t.Fatalf("math enrolled after delete = %d, want 0", got)
	}
	if got := db.OutboxCount(t, domain.EventStudentUnenrolled); got != 1 {
		t.Fatalf("unenrolled events = %d, want 1", got)
	}
}

func TestAdminUserAndCourseEdits(t *testing.T) {
	t.Parallel()

	db, handler := newTestApp(t)
	admin := db.User(t, domain.RoleAdmin, "Registrar")
	teacher := db.User(t, domain.RoleTeacher, "Susan Walker")
	student := db.User(t, domain.RoleStudent, "Nancy Little")
	other := db.User(t, domain.RoleStudent, "Aditya Ranganath")
	course := db.Course(t, teacher.ID, "Physics 121", "TR 11:00-11:50 AM", 10)
	db.Enrollment(t, student.ID, course.ID, 0)
	db.Enrollment(t, other.ID, course.ID, 0)

	courseBody := func(capacity int) string {
		return `{"course_name":"Physics 121H","teacher_id":"` + teacher.ID.String() + `","time":"MWF 2:00-2:50 PM","capacity":` + strconv.Itoa(capacity) + `}`
	}

	if rec := do(t, handler, http.MethodPut, "/admin/courses/"+course.ID.String(), admin.ID, courseBody(1)); rec.Code != http.StatusBadRequest {
		t.Fatalf("capacity below enrolled status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	rec := do(t, handler, http.MethodPut, "/admin/courses/"+course.ID.String(), admin.ID, courseBody(2))
	if rec.Code != http.StatusOK {
		t.Fatalf("update course status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated struct {
		CourseName string `json:"course_name"`
		Time       string `json:"time"`
		Capacity   int    `json:"capacity"`
	}
	decodeBody(t, rec, &updated)
	if updated.CourseName != "Physics 121H" || updated.Time != "MWF 2:00-2:50 PM" || updated.Capacity != 2 {
		t.Fatalf("updated course = %+v", updated)
	}
	if rec := do(t, handler, http.MethodPut, "/admin/courses/"+uuid.NewString(), admin.ID, courseBody(5)); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown course update status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	if rec := do(t, handler, http.MethodDelete, "/admin/users/"+teacher.ID.String(), admin.ID, ""); rec.Code != http.StatusConflict {
		t.Fatalf("delete teacher with courses status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if rec := do(t, handler, http.MethodDelete, "/admin/users/"+admin.ID.String(), admin.ID, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("self delete status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if rec := do(t, handler, http.MethodDelete, "/admin/users/"+student.ID.String(), teacher.ID, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("teacher deleting user status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if rec := do(t, handler, http.MethodDelete, "/admin/users/"+student.ID.String(), admin.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete student status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := db.EnrolledCount(t, course.ID); got != 1 {
		t.Fatalf("enrolled after student delete = %d, want 1", got)
	}
	if got := db.OutboxCount(t, domain.EventUserDeleted); got != 1 {
		t.Fatalf("user deleted events = %d, want 1", got)
	}

	// The deleted student can no longer authenticate.
	if rec := do(t, handler, http.MethodGet, "/api/student/courses", student.ID, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("deleted student status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
