package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

var (
	// ErrNotFound is returned when a record with the requested id does not exist
	ErrNotFound = errors.New("record not found")
	// ErrInUse is returned when deleting a record that assignments still reference
	ErrInUse = errors.New("record is referenced by assignments")
)

// Store reads and writes planner records
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open database
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ListStaff returns every staff member ordered by id
func (s *Store) ListStaff(ctx context.Context) ([]models.Staff, error) {
	staff := []models.Staff{}
	if err := s.db.WithContext(ctx).Order("id").Find(&staff).Error; err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}

// GetStaff loads one staff member
func (s *Store) GetStaff(ctx context.Context, id uint) (*models.Staff, error) {
	var staff models.Staff
	if err := s.db.WithContext(ctx).First(&staff, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &staff, nil
}

// CreateStaff inserts a staff member and fills in its id
func (s *Store) CreateStaff(ctx context.Context, staff *models.Staff) error {
	staff.ID = 0
	return s.db.WithContext(ctx).Create(staff).Error
}

// UpdateStaff renames an existing staff member
func (s *Store) UpdateStaff(ctx context.Context, staff *models.Staff) error {
	res := s.db.WithContext(ctx).Model(&models.Staff{}).Where("id = ?", staff.ID).Update("name", staff.Name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStaff removes a staff member that no assignment refers to
func (s *Store) DeleteStaff(ctx context.Context, id uint) error {
	return s.deleteUnreferenced(ctx, &models.Staff{}, id, "staff_id")
}

// ListProjects returns every project ordered by id
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects := []models.Project{}
	if err := s.db.WithContext(ctx).Order("id").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// GetProject loads one project
func (s *Store) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

// CreateProject inserts a project and fills in its id
func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	project.ID = 0
	return s.db.WithContext(ctx).Create(project).Error
}

// UpdateProject renames an existing project
func (s *Store) UpdateProject(ctx context.Context, project *models.Project) error {
	res := s.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", project.ID).Update("name", project.Name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProject removes a project that no assignment refers to
func (s *Store) DeleteProject(ctx context.Context, id uint) error {
	return s.deleteUnreferenced(ctx, &models.Project{}, id, "project_id")
}

func (s *Store) deleteUnreferenced(ctx context.Context, model any, id uint, column string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(model, id).Error; err != nil {
			return notFound(err)
		}
		var refs int64
		if err := tx.Model(&models.Assignment{}).Where(column+" = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrInUse
		}
		return tx.Delete(model, id).Error
	})
}

// AssignmentFilter narrows ListAssignments. Zero values match everything.
type AssignmentFilter struct {
	StaffID uint
	// From and To select assignments overlapping [From, To]
	From string
	To   string
}

// ListAssignments returns assignments matching the filter ordered by start date
func (s *Store) ListAssignments(ctx context.Context, f AssignmentFilter) ([]models.Assignment, error) {
	q := s.db.WithContext(ctx).Model(&models.Assignment{})
	if f.StaffID != 0 {
		q = q.Where("staff_id = ?", f.StaffID)
	}
	// ISO dates compare correctly as strings
	if f.To != "" {
		q = q.Where("start_date <= ?", f.To)
	}
	if f.From != "" {
		q = q.Where("end_date >= ?", f.From)
	}

	assignments := []models.Assignment{}
	if err := q.Order("start_date, id").Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// GetAssignment loads one assignment
func (s *Store) GetAssignment(ctx context.Context, id uint) (*models.Assignment, error) {
	var a models.Assignment
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// CreateAssignment inserts an assignment and fills in its id
func (s *Store) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	a.ID = 0
	return s.db.WithContext(ctx).Create(a).Error
}

// UpdateAssignment replaces every field of an existing assignment
func (s *Store) UpdateAssignment(ctx context.Context, a *models.Assignment) error {
	res := s.db.WithContext(ctx).Model(&models.Assignment{}).Where("id = ?", a.ID).
		Select("staff_id", "project_id", "start_date", "end_date", "notes").
		Updates(a)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAssignment removes an assignment
func (s *Store) DeleteAssignment(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Assignment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRules returns the stored capacity rules, or the defaults when nothing
// has been saved yet
func (s *Store) GetRules(ctx context.Context) (models.CapacityRules, error) {
	var doc RulesDocument
	err := s.db.WithContext(ctx).First(&doc, rulesDocumentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultCapacityRules(), nil
	}
	if err != nil {
		return models.CapacityRules{}, fmt.Errorf("load capacity rules: %w", err)
	}

	var rules models.CapacityRules
	if err := json.Unmarshal([]byte(doc.Body), &rules); err != nil {
		return models.CapacityRules{}, fmt.Errorf("corrupt capacity rules document: %w", err)
	}
	rules.Normalize()
	return rules, nil
}

// SaveRules replaces the stored rules document in full
func (s *Store) SaveRules(ctx context.Context, rules models.CapacityRules) error {
	rules.Normalize()
	body, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("encode capacity rules: %w", err)
	}

	// single-row upsert works on both Postgres and SQLite
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&RulesDocument{ID: rulesDocumentID, Body: string(body)}).Error
}

// Snapshot is everything a forecast reads
type Snapshot struct {
	Rules       models.CapacityRules
	Staff       []models.Staff
	Assignments []models.Assignment
}

// LoadSnapshot reads rules, staff and the assignments overlapping [from, to]
func (s *Store) LoadSnapshot(ctx context.Context, from, to string) (Snapshot, error) {
	rules, err := s.GetRules(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	staff, err := s.ListStaff(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	assignments, err := s.ListAssignments(ctx, AssignmentFilter{From: from, To: to})
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Rules: rules, Staff: staff, Assignments: assignments}, nil
}
