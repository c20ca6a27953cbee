package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
	"github.com/noah-isme/school-diary-api/pkg/export"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

var contentTypes = map[string]string{
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatCSV:  "text/csv; charset=utf-8",
	FormatPDF:  "application/pdf",
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type studentLister interface {
	List(ctx context.Context, search string) ([]models.StudentRecord, error)
}

type teacherLister interface {
	List(ctx context.Context, search string) ([]dto.TeacherSummary, error)
}

type scheduleSearcher interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, error)
}

type subjectLister interface {
	List(ctx context.Context, search string) ([]models.Subject, error)
}

type subjectReporter interface {
	SubjectReport(ctx context.Context, p *models.Principal, classID, subjectID int64) (*models.Class, *models.Subject, []dto.StudentProgress, error)
}

type teacherWorkspace interface {
	TeacherSchedule(ctx context.Context, p *models.Principal) ([]models.ScheduleRecord, error)
	MyClass(ctx context.Context, p *models.Principal) (*dto.MyClass, error)
}

// ExportDeps groups the services whose data ExportService renders.
type ExportDeps struct {
	Students  studentLister
	Teachers  teacherLister
	Schedules scheduleSearcher
	Subjects  subjectLister
	Gradebook subjectReporter
	Classes   teacherWorkspace
}

// ExportService turns listings into spreadsheet, CSV or PDF downloads.
type ExportService struct {
	deps    ExportDeps
	xlsx    *export.XLSXExporter
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(deps ExportDeps, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		deps:    deps,
		xlsx:    export.NewXLSXExporter(),
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// ParseFormat validates a format query value; empty means xlsx.
func ParseFormat(raw string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	if format == "" {
		return FormatXLSX, nil
	}
	if _, ok := contentTypes[format]; !ok {
		return "", badRequest("unsupported export format " + raw)
	}
	return format, nil
}

// Students exports students grouped by class.
func (s *ExportService) Students(ctx context.Context, search, format string) (*ExportFile, error) {
	students, err := s.deps.Students.List(ctx, search)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Headers:    []string{"user_id", "student_id", "username", "first_name", "last_name", "email", "phone_number", "birth_date", "address"},
		GroupBy:    "class_name",
		EmptySheet: "No Students",
	}
	for _, st := range students {
		data.Rows = append(data.Rows, map[string]string{
			"user_id":      strconv.FormatInt(st.ID, 10),
			"student_id":   strconv.FormatInt(st.StudentID, 10),
			"username":     st.Username,
			"first_name":   st.FirstName,
			"last_name":    st.LastName,
			"email":        deref(st.Email),
			"phone_number": st.PhoneNumber,
			"birth_date":   st.BirthDate.String(),
			"address":      st.Address,
			"class_name":   deref(st.ClassName),
		})
	}
	return s.render(data, "students", "students", "Students", format)
}

// Teachers exports teachers with their classes, positions and subjects on one sheet.
func (s *ExportService) Teachers(ctx context.Context, search, format string) (*ExportFile, error) {
	teachers, err := s.deps.Teachers.List(ctx, search)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Headers:    []string{"Teacher ID", "User ID", "Username", "First Name", "Last Name", "Email", "Phone Number", "Class Name", "Position", "Subjects"},
		Sheet:      "Teachers",
		EmptySheet: "No Teachers",
	}
	for _, t := range teachers {
		var classes, positions, subjects []string
		for _, c := range t.Classes {
			classes = append(classes, c.Name)
		}
		for _, p := range t.Positions {
			positions = append(positions, p.PositionName)
			for _, subject := range p.Subjects {
				subjects = append(subjects, subject.Name)
			}
		}
		data.Rows = append(data.Rows, map[string]string{
			"Teacher ID":   strconv.FormatInt(t.TeacherID, 10),
			"User ID":      strconv.FormatInt(t.UserID, 10),
			"Username":     t.Username,
			"First Name":   t.FirstName,
			"Last Name":    t.LastName,
			"Email":        deref(t.Email),
			"Phone Number": t.PhoneNumber,
			"Class Name":   strings.Join(classes, ", "),
			"Position":     strings.Join(positions, ", "),
			"Subjects":     strings.Join(subjects, ", "),
		})
	}
	return s.render(data, "teachers", "teachers", "Teachers", format)
}

// Schedules exports schedules grouped by class.
func (s *ExportService) Schedules(ctx context.Context, filter models.ScheduleFilter, format string) (*ExportFile, error) {
	schedules, err := s.deps.Schedules.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Headers:    []string{"schedule_id", "class_name", "subject_name", "teacher_name", "day_of_week", "start_time", "end_time"},
		GroupBy:    "class_name",
		EmptySheet: "No Schedules",
	}
	for _, sc := range schedules {
		data.Rows = append(data.Rows, map[string]string{
			"schedule_id":  strconv.FormatInt(sc.ID, 10),
			"class_name":   sc.ClassName,
			"subject_name": sc.SubjectName,
			"teacher_name": sc.TeacherName,
			"day_of_week":  sc.DayOfWeek,
			"start_time":   sc.StartTime,
			"end_time":     sc.EndTime,
		})
	}
	return s.render(data, "schedules", "schedules", "Schedules", format)
}

// Subjects exports subjects on one sheet.
func (s *ExportService) Subjects(ctx context.Context, search, format string) (*ExportFile, error) {
	subjects, err := s.deps.Subjects.List(ctx, search)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Headers:    []string{"Subject ID", "Subject Name"},
		Sheet:      "Subjects",
		EmptySheet: "No Subjects",
	}
	for _, subject := range subjects {
		data.Rows = append(data.Rows, map[string]string{
			"Subject ID":   strconv.FormatInt(subject.ID, 10),
			"Subject Name": subject.Name,
		})
	}
	return s.render(data, "subjects", "subjects", "Subjects", format)
}

// SubjectReport exports the grades and attendance of a class in one subject.
func (s *ExportService) SubjectReport(ctx context.Context, p *models.Principal, classID, subjectID int64, format string) (*ExportFile, error) {
	class, subject, students, err := s.deps.Gradebook.SubjectReport(ctx, p, classID, subjectID)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, notFound("class has no students")
	}
	sheet := class.Name + "_" + subject.Name
	data := export.Dataset{
		Headers:    []string{"ФИО ученика", "Оценки", "Посещаемость"},
		Sheet:      sheet,
		EmptySheet: sheet,
		Rows:       progressRows(students),
	}
	name := fmt.Sprintf("report_%s_%s_%s", class.Name, subject.Name, s.timestamp())
	return s.render(data, "subject_report", name, class.Name+" / "+subject.Name, format)
}

// TeacherSchedule exports the caller's own schedule.
func (s *ExportService) TeacherSchedule(ctx context.Context, p *models.Principal, format string) (*ExportFile, error) {
	schedule, err := s.deps.Classes.TeacherSchedule(ctx, p)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Headers:    []string{"День недели", "Время", "Предмет", "Класс"},
		Sheet:      "Расписание",
		EmptySheet: "Расписание",
	}
	for _, sc := range schedule {
		data.Rows = append(data.Rows, map[string]string{
			"День недели": sc.DayOfWeek,
			"Время":       lessonTime(sc.Schedule),
			"Предмет":     sc.SubjectName,
			"Класс":       sc.ClassName,
		})
	}
	name := fmt.Sprintf("teacher_schedule_%s_%s", p.Username, s.timestamp())
	return s.render(data, "teacher_schedule", name, "Расписание", format)
}

// MyClassReport exports the homeroom class as a workbook with schedule, grades, attendance and
// student sheets.
func (s *ExportService) MyClassReport(ctx context.Context, p *models.Principal) (*ExportFile, error) {
	view, err := s.deps.Classes.MyClass(ctx, p)
	if err != nil {
		return nil, err
	}

	schedule := export.Dataset{
		Headers:    []string{"День недели", "Время", "Предмет", "Учитель"},
		Sheet:      "Расписание",
		EmptySheet: "Расписание",
	}
	for _, sc := range view.Schedule {
		schedule.Rows = append(schedule.Rows, map[string]string{
			"День недели": sc.DayOfWeek,
			"Время":       lessonTime(sc.Schedule),
			"Предмет":     sc.SubjectName,
			"Учитель":     sc.TeacherName,
		})
	}

	subjectSet := make(map[string]struct{})
	var subjects []string
	for _, st := range view.Students {
		for _, g := range st.Grades {
			if _, ok := subjectSet[g.SubjectName]; !ok {
				subjectSet[g.SubjectName] = struct{}{}
				subjects = append(subjects, g.SubjectName)
			}
		}
	}
	sort.Strings(subjects)
	grades := export.Dataset{Headers: append([]string{"ФИО ученика"}, subjects...), Sheet: "Оценки", EmptySheet: "Оценки"}
	attendance := export.Dataset{Headers: []string{"ФИО ученика", "Посещаемость"}, Sheet: "Посещаемость", EmptySheet: "Посещаемость"}
	students := export.Dataset{
		Headers:    []string{"ФИО", "Дата рождения", "Адрес", "Email", "Телефон"},
		Sheet:      "Ученики",
		EmptySheet: "Ученики",
	}
	for _, st := range view.Students {
		name := st.FullName()
		row := map[string]string{"ФИО ученика": name}
		for _, g := range st.Grades {
			if row[g.SubjectName] != "" {
				row[g.SubjectName] += ", "
			}
			row[g.SubjectName] += strconv.Itoa(g.Grade)
		}
		grades.Rows = append(grades.Rows, row)
		attendance.Rows = append(attendance.Rows, map[string]string{
			"ФИО ученика":  name,
			"Посещаемость": attendanceSummary(st.Attendance),
		})
		students.Rows = append(students.Rows, map[string]string{
			"ФИО":           name,
			"Дата рождения": orDefault(st.BirthDate.String(), "Не указана"),
			"Адрес":         orDefault(st.Address, "Не указан"),
			"Email":         orDefault(deref(st.Email), "Не указан"),
			"Телефон":       orDefault(st.PhoneNumber, "Не указан"),
		})
	}

	payload, err := s.xlsx.RenderBook(schedule, grades, attendance, students)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render report")
	}
	s.record("my_class", FormatXLSX)
	return &ExportFile{
		Filename:    fmt.Sprintf("my_class_full_report_%s_%s.xlsx", view.Class.Name, s.timestamp()),
		ContentType: contentTypes[FormatXLSX],
		Payload:     payload,
	}, nil
}

func (s *ExportService) render(data export.Dataset, dataset, name, title, format string) (*ExportFile, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	var payload []byte
	switch format {
	case FormatCSV:
		payload, err = s.csv.Render(data)
	case FormatPDF:
		payload, err = s.pdf.Render(data, title)
	default:
		payload, err = s.xlsx.Render(data)
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render "+format)
	}
	s.record(dataset, format)
	s.logger.Debug("export rendered", zap.String("file", name), zap.String("format", format), zap.Int("rows", len(data.Rows)))
	return &ExportFile{
		Filename:    name + "." + format,
		ContentType: contentTypes[format],
		Payload:     payload,
	}, nil
}

func (s *ExportService) record(dataset, format string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordExport(dataset, format)
}

func (s *ExportService) timestamp() string {
	return s.now().Format("20060102_150405")
}

func progressRows(students []dto.StudentProgress) []map[string]string {
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		marks := make([]string, 0, len(st.Grades))
		for _, g := range st.Grades {
			marks = append(marks, strconv.Itoa(g.Grade))
		}
		rows = append(rows, map[string]string{
			"ФИО ученика":  st.FullName(),
			"Оценки":       orDefault(strings.Join(marks, "; "), "Нет оценок"),
			"Посещаемость": attendanceSummary(st.Attendance),
		})
	}
	return rows
}

func attendanceSummary(records []models.Attendance) string {
	parts := make([]string, 0, len(records))
	for _, a := range records {
		parts = append(parts, a.Date.String()+": "+a.Status)
	}
	return orDefault(strings.Join(parts, "; "), "Нет записей")
}

func lessonTime(sc models.Schedule) string {
	if sc.StartTime == "" || sc.EndTime == "" {
		return "Не указано"
	}
	return sc.StartTime + "-" + sc.EndTime
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
