package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kbukum/canvasflow/database"
	"github.com/kbukum/canvasflow/workflow"
)

type workflowModel struct {
	ID          string          `gorm:"primaryKey;size:36"`
	Title       string          `gorm:"size:200;not null"`
	Description string          `gorm:"type:text"`
	Thumbnail   string          `gorm:"type:text"`
	Nodes       []workflow.Node `gorm:"serializer:json;type:text"`
	Edges       []workflow.Edge `gorm:"serializer:json;type:text"`
	Version     int             `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time `gorm:"index"`
}

func (workflowModel) TableName() string { return "workflows" }

type versionModel struct {
	ID         uint            `gorm:"primaryKey"`
	WorkflowID string          `gorm:"size:36;not null;uniqueIndex:idx_workflow_version"`
	Version    int             `gorm:"not null;uniqueIndex:idx_workflow_version"`
	Title      string          `gorm:"size:200"`
	Nodes      []workflow.Node `gorm:"serializer:json;type:text"`
	Edges      []workflow.Edge `gorm:"serializer:json;type:text"`
	CreatedAt  time.Time
}

func (versionModel) TableName() string { return "workflow_versions" }

type executionModel struct {
	ID          string            `gorm:"primaryKey;size:36"`
	WorkflowID  string            `gorm:"size:36;index"`
	Status      string            `gorm:"size:16;not null"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	Results     map[string]any    `gorm:"serializer:json;type:text"`
	Errors      map[string]string `gorm:"serializer:json;type:text"`
	Error       string            `gorm:"type:text"`
	CreatedAt   time.Time         `gorm:"index"`
}

func (executionModel) TableName() string { return "workflow_executions" }

// Models returns the tables the gorm store needs, for AutoMigrate.
func Models() []any {
	return []any{&workflowModel{}, &versionModel{}, &executionModel{}}
}

// Gorm is a Store backed by a database.DB.
type Gorm struct {
	db *database.DB
}

var _ Store = (*Gorm)(nil)

// NewGorm wraps db. The tables from Models must already exist.
func NewGorm(db *database.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) Create(ctx context.Context, doc workflow.Document) (*Workflow, error) {
	m := workflowModel{
		ID:          uuid.NewString(),
		Title:       doc.Title,
		Description: doc.Description,
		Thumbnail:   doc.Thumbnail,
		Nodes:       doc.Nodes,
		Edges:       doc.Edges,
		Version:     1,
	}
	err := g.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		return tx.Create(versionOf(&m)).Error
	})
	if err != nil {
		return nil, database.FromDatabase(err, "workflow", m.ID)
	}
	return m.toWorkflow(), nil
}

func (g *Gorm) Update(ctx context.Context, id string, doc workflow.Document) (*Workflow, error) {
	var m workflowModel
	err := g.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return err
		}
		var latest int
		if err := tx.Model(&versionModel{}).Where("workflow_id = ?", id).
			Select("COALESCE(MAX(version), 0)").Scan(&latest).Error; err != nil {
			return err
		}
		m.Title = doc.Title
		m.Description = doc.Description
		m.Thumbnail = doc.Thumbnail
		m.Nodes = doc.Nodes
		m.Edges = doc.Edges
		m.Version = latest + 1
		if err := tx.Save(&m).Error; err != nil {
			return err
		}
		if err := tx.Create(versionOf(&m)).Error; err != nil {
			return err
		}
		return tx.Where("workflow_id = ? AND version <= ?", id, m.Version-MaxVersions).
			Delete(&versionModel{}).Error
	})
	if err != nil {
		return nil, database.FromDatabase(err, "workflow", id)
	}
	return m.toWorkflow(), nil
}

func (g *Gorm) Get(ctx context.Context, id string) (*Workflow, error) {
	var m workflowModel
	if err := g.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, database.FromDatabase(err, "workflow", id)
	}
	return m.toWorkflow(), nil
}

func (g *Gorm) List(ctx context.Context) ([]Workflow, error) {
	var rows []workflowModel
	if err := g.db.WithContext(ctx).Order("updated_at DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, database.FromDatabase(err, "workflow", "")
	}
	out := make([]Workflow, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toWorkflow())
	}
	return out, nil
}

func (g *Gorm) Delete(ctx context.Context, id string) error {
	err := g.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&workflowModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Delete(&versionModel{}, "workflow_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&executionModel{}, "workflow_id = ?", id).Error
	})
	if err != nil {
		return database.FromDatabase(err, "workflow", id)
	}
	return nil
}

func (g *Gorm) Versions(ctx context.Context, id string) ([]Version, error) {
	if _, err := g.Get(ctx, id); err != nil {
		return nil, err
	}
	var rows []versionModel
	if err := g.db.WithContext(ctx).Where("workflow_id = ?", id).Order("version DESC").Find(&rows).Error; err != nil {
		return nil, database.FromDatabase(err, "workflow version", id)
	}
	out := make([]Version, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toVersion())
	}
	return out, nil
}

func (g *Gorm) Version(ctx context.Context, id string, version int) (*Version, error) {
	var m versionModel
	err := g.db.WithContext(ctx).Where("workflow_id = ? AND version = ?", id, version).First(&m).Error
	if err != nil {
		return nil, database.FromDatabase(err, "workflow version", id)
	}
	v := m.toVersion()
	return &v, nil
}

func (g *Gorm) StartExecution(ctx context.Context, workflowID string) (*Execution, error) {
	m := executionModel{ID: uuid.NewString(), WorkflowID: workflowID, Status: string(ExecutionPending)}
	if err := g.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, database.FromDatabase(err, "execution", m.ID)
	}
	return m.toExecution(), nil
}

func (g *Gorm) MarkRunning(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return g.updateExecution(ctx, id, map[string]any{
		"status":     string(ExecutionRunning),
		"started_at": &now,
	})
}

func (g *Gorm) FinishExecution(ctx context.Context, id string, out Outcome) error {
	var m executionModel
	err := g.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		m.Status = string(outcomeStatus(out))
		m.CompletedAt = &now
		m.Results = out.Results
		m.Errors = out.Errors
		m.Error = firstError(out.Errors)
		return tx.Save(&m).Error
	})
	if err != nil {
		return database.FromDatabase(err, "execution", id)
	}
	return nil
}

func (g *Gorm) Execution(ctx context.Context, id string) (*Execution, error) {
	var m executionModel
	if err := g.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, database.FromDatabase(err, "execution", id)
	}
	return m.toExecution(), nil
}

func (g *Gorm) Executions(ctx context.Context, workflowID string) ([]Execution, error) {
	var rows []executionModel
	err := g.db.WithContext(ctx).Where("workflow_id = ?", workflowID).
		Order("created_at DESC, id DESC").Find(&rows).Error
	if err != nil {
		return nil, database.FromDatabase(err, "execution", workflowID)
	}
	out := make([]Execution, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toExecution())
	}
	return out, nil
}

func (g *Gorm) updateExecution(ctx context.Context, id string, fields map[string]any) error {
	res := g.db.WithContext(ctx).Model(&executionModel{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return database.FromDatabase(res.Error, "execution", id)
	}
	if res.RowsAffected == 0 {
		return database.FromDatabase(gorm.ErrRecordNotFound, "execution", id)
	}
	return nil
}

func versionOf(m *workflowModel) *versionModel {
	return &versionModel{
		WorkflowID: m.ID,
		Version:    m.Version,
		Title:      m.Title,
		Nodes:      m.Nodes,
		Edges:      m.Edges,
		CreatedAt:  m.UpdatedAt,
	}
}

func (m *workflowModel) toWorkflow() *Workflow {
	return &Workflow{
		ID: m.ID,
		Document: workflow.Document{
			Title:       m.Title,
			Description: m.Description,
			Thumbnail:   m.Thumbnail,
			Nodes:       m.Nodes,
			Edges:       m.Edges,
		},
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (m *versionModel) toVersion() Version {
	return Version{
		WorkflowID: m.WorkflowID,
		Version:    m.Version,
		Title:      m.Title,
		Nodes:      m.Nodes,
		Edges:      m.Edges,
		CreatedAt:  m.CreatedAt,
	}
}

func (m *executionModel) toExecution() *Execution {
	return &Execution{
		ID:          m.ID,
		WorkflowID:  m.WorkflowID,
		Status:      ExecutionStatus(m.Status),
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
		Results:     m.Results,
		Errors:      m.Errors,
		Error:       m.Error,
		CreatedAt:   m.CreatedAt,
	}
}
