package service

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/export"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

// ExportLayout selects how assignments are laid out.
type ExportLayout string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"

	// ExportLayoutList writes one row per assignment.
	ExportLayoutList ExportLayout = "list"
	// ExportLayoutGrid writes one row per period and one column per day.
	ExportLayoutGrid ExportLayout = "grid"
)

var listHeaders = []string{"Day", "Period", "Duration", "Section", "Subject", "Grade", "Teacher", "Classroom", "Origin"}

// ExportFile is a rendered schedule ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportService renders committed schedules for printing and spreadsheets.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService; nil renderers use the defaults.
func NewExportService(csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger}
}

// Render builds the dataset for the layout and encodes it in format.
func (s *ExportService) Render(unit models.PlanningUnit, schedule models.Schedule, format ExportFormat, layout ExportLayout) (*ExportFile, error) {
	var data export.Dataset
	switch layout {
	case ExportLayoutList, "":
		layout = ExportLayoutList
		data = listDataset(unit, schedule)
	case ExportLayoutGrid:
		data = gridDataset(schedule)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export layout %q", layout))
	}
	data.Title = fmt.Sprintf("Timetable %s v%d", schedule.UnitID, schedule.Version)

	var (
		body        []byte
		err         error
		contentType string
	)
	switch format {
	case ExportFormatCSV, "":
		format = ExportFormatCSV
		contentType = "text/csv"
		body, err = s.csv.Render(data)
	case ExportFormatPDF:
		contentType = "application/pdf"
		body, err = s.pdf.Render(data)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		s.logger.Error("render schedule export failed", zap.String("unit_id", schedule.UnitID), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule export")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("timetable-%s-v%d-%s.%s", schedule.UnitID, schedule.Version, layout, format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func listDataset(unit models.PlanningUnit, schedule models.Schedule) export.Dataset {
	sections := make(map[string]models.Section, len(unit.Sections))
	for _, section := range unit.Sections {
		sections[section.ID] = section
	}
	items := models.CloneAssignments(schedule.Assignments)
	models.SortAssignments(items)

	rows := make([]map[string]string, 0, len(items))
	for _, a := range items {
		section := sections[a.SectionID]
		rows = append(rows, map[string]string{
			"Day":       models.DayName(a.Slot.Day),
			"Period":    strconv.Itoa(a.Slot.Period),
			"Duration":  strconv.Itoa(a.Duration),
			"Section":   a.SectionID,
			"Subject":   section.Subject,
			"Grade":     strconv.Itoa(section.GradeLevel),
			"Teacher":   a.TeacherID,
			"Classroom": a.ClassroomID,
			"Origin":    string(a.Origin),
		})
	}
	return export.Dataset{Headers: listHeaders, Rows: rows}
}

// gridDataset places every session in each period it occupies.
func gridDataset(schedule models.Schedule) export.Dataset {
	headers := []string{"Period"}
	for day := 1; day <= models.DaysPerWeek; day++ {
		headers = append(headers, models.DayName(day))
	}

	lastPeriod := 0
	cells := make(map[models.TimeSlot][]string)
	items := models.CloneAssignments(schedule.Assignments)
	models.SortAssignments(items)
	for _, a := range items {
		label := fmt.Sprintf("%s #%d: %s @ %s", a.SectionID, a.Session, a.TeacherID, a.ClassroomID)
		for period := a.Slot.Period; period <= a.LastPeriod(); period++ {
			slot := models.TimeSlot{Day: a.Slot.Day, Period: period}
			cells[slot] = append(cells[slot], label)
		}
		lastPeriod = max(lastPeriod, a.LastPeriod())
	}

	rows := make([]map[string]string, 0, lastPeriod)
	for period := 1; period <= lastPeriod; period++ {
		row := map[string]string{"Period": fmt.Sprintf("P%d", period)}
		for day := 1; day <= models.DaysPerWeek; day++ {
			row[models.DayName(day)] = strings.Join(cells[models.TimeSlot{Day: day, Period: period}], "\n")
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
