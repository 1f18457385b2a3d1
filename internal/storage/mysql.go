package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"talent-rank-go/internal/config"
	"talent-rank-go/internal/storage/models"
	"talent-rank-go/internal/types"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var mysqlTracer = otel.Tracer("talent-rank-go/storage/mysql")

type gormSpanKey struct{}

// GormTracingPlugin 是一个GORM插件，用于向OpenTelemetry中添加数据库操作的追踪点
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// gormRegistrar 抹平GORM回调注册点的未导出类型
type gormRegistrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

// Initialize 为全部CRUD操作注册Before/After回调
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		before    gormRegistrar
		after     gormRegistrar
		operation string
	}{
		{cb.Create().Before("gorm:create"), cb.Create().After("gorm:create"), "CREATE"},
		{cb.Query().Before("gorm:query"), cb.Query().After("gorm:query"), "SELECT"},
		{cb.Update().Before("gorm:update"), cb.Update().After("gorm:update"), "UPDATE"},
		{cb.Delete().Before("gorm:delete"), cb.Delete().After("gorm:delete"), "DELETE"},
		{cb.Row().Before("gorm:row"), cb.Row().After("gorm:row"), "ROW"},
		{cb.Raw().Before("gorm:raw"), cb.Raw().After("gorm:raw"), "RAW"},
	}
	for _, h := range hooks {
		if err := h.before.Register("otel:before_"+h.operation, p.before(h.operation)); err != nil {
			return err
		}
		if err := h.after.Register("otel:after_"+h.operation, p.after()); err != nil {
			return err
		}
	}
	return nil
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		newCtx, _ := p.tracer.Start(ctx, fmt.Sprintf("%s %s", operation, tableName),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		)
		db.Statement.Context = context.WithValue(newCtx, gormSpanKey{}, trace.SpanFromContext(newCtx))
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		if db.Error != nil {
			if errors.Is(db.Error, gorm.ErrRecordNotFound) {
				// ErrRecordNotFound 属于正常业务分支，不作为错误上报
				span.SetAttributes(attribute.String("error.type", "record_not_found"))
				span.SetStatus(codes.Ok, "record not found")
			} else {
				span.SetAttributes(attribute.String("error.type", "database_error"))
				span.RecordError(db.Error)
				span.SetStatus(codes.Error, db.Error.Error())
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer: mysqlTracer,
		dbName: dbName,
	}
}

// MySQL 提供岗位、候选人与评分数据的关系存储
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端并自动迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	default:
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	m := &MySQL{db: db, cfg: cfg}
	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Println("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

func (m *MySQL) autoMigrateSchema() error {
	silentDB := m.db.Session(&gorm.Session{Logger: m.db.Logger.LogMode(logger.Silent)})
	return silentDB.AutoMigrate(
		&models.Job{},
		&models.JobSkill{},
		&models.Candidate{},
		&models.CandidateGap{},
		&models.JobCandidate{},
		&models.CandidateScore{},
	)
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetJob 获取岗位及其技能要求，必备和加分技能分列
func (m *MySQL) GetJob(ctx context.Context, jobID string) (*types.Job, error) {
	var job models.Job
	if err := m.db.WithContext(ctx).Where("job_id = ?", jobID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("岗位 %s: %w", jobID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("查询岗位失败: %w", err)
	}

	var skills []models.JobSkill
	if err := m.db.WithContext(ctx).Where("job_id = ?", jobID).Order("skill_db_id").Find(&skills).Error; err != nil {
		return nil, fmt.Errorf("查询岗位技能失败: %w", err)
	}

	result := &types.Job{
		JobID:       job.JobID,
		Title:       job.JobTitle,
		Description: job.JobDescriptionText,
	}
	for _, s := range skills {
		if s.Required {
			result.MustHave = append(result.MustHave, s.SkillName)
		} else {
			result.NiceToHave = append(result.NiceToHave, s.SkillName)
		}
	}
	return result, nil
}

// GetCandidate 获取候选人及其空窗期记录
func (m *MySQL) GetCandidate(ctx context.Context, candidateID string) (*types.Candidate, error) {
	var c models.Candidate
	if err := m.db.WithContext(ctx).Where("candidate_id = ?", candidateID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("候选人 %s: %w", candidateID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("查询候选人失败: %w", err)
	}

	var skills []string
	if len(c.SkillsJSON) > 0 {
		if err := json.Unmarshal(c.SkillsJSON, &skills); err != nil {
			return nil, fmt.Errorf("解析候选人技能JSON失败: %w", err)
		}
	}

	var gapRows []models.CandidateGap
	if err := m.db.WithContext(ctx).Where("candidate_id = ?", candidateID).Order("gap_db_id").Find(&gapRows).Error; err != nil {
		return nil, fmt.Errorf("查询候选人空窗期失败: %w", err)
	}

	result := &types.Candidate{
		CandidateID:     c.CandidateID,
		Name:            c.PrimaryName,
		YearsExperience: c.YearsExperience,
		LastRoleTitle:   c.LastRoleTitle,
		Skills:          skills,
		LastActivityAt:  c.LastActivityAt,
	}
	for _, g := range gapRows {
		gap := types.EmploymentGap{Months: g.GapMonths}
		if g.GapStart != nil {
			gap.Start = *g.GapStart
		}
		if g.GapEnd != nil {
			gap.End = *g.GapEnd
		}
		result.Gaps = append(result.Gaps, gap)
	}
	return result, nil
}

// ListJobCandidates 列出岗位候选池中全部候选人ID，按入池顺序
func (m *MySQL) ListJobCandidates(ctx context.Context, jobID string) ([]string, error) {
	var links []models.JobCandidate
	if err := m.db.WithContext(ctx).Where("job_id = ?", jobID).Order("link_id").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("查询岗位候选池失败: %w", err)
	}
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.CandidateID)
	}
	return ids, nil
}

// GetScore 读取已持久化的评分结果
func (m *MySQL) GetScore(ctx context.Context, jobID, candidateID string) (*types.ScoreBreakdown, error) {
	var row models.CandidateScore
	err := m.db.WithContext(ctx).
		Where("job_id = ? AND candidate_id = ?", jobID, candidateID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("评分记录 %s/%s: %w", jobID, candidateID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("查询评分记录失败: %w", err)
	}
	return scoreRowToBreakdown(&row)
}

// SaveScore 持久化评分结果，同一(job, candidate)覆盖旧值
func (m *MySQL) SaveScore(ctx context.Context, score *types.ScoreBreakdown, contentHash string) error {
	missingJSON, err := json.Marshal(score.MissingMustHave)
	if err != nil {
		return fmt.Errorf("序列化缺失技能失败: %w", err)
	}
	weightsJSON, err := json.Marshal(score.Weights)
	if err != nil {
		return fmt.Errorf("序列化权重失败: %w", err)
	}

	row := models.CandidateScore{
		JobID:           score.JobID,
		CandidateID:     score.CandidateID,
		TotalScore:      score.TotalScore,
		SkillMatchScore: score.SkillMatchScore,
		TitleScore:      score.TitleScore,
		SeniorityScore:  score.SeniorityScore,
		RecencyScore:    score.RecencyScore,
		GapPenalty:      score.GapPenalty,
		MissingMustHave: datatypes.JSON(missingJSON),
		Explanation:     score.Explanation,
		WeightsJSON:     datatypes.JSON(weightsJSON),
		ContentHash:     contentHash,
		AIRank:          score.AIRank,
		AIRankReason:    score.AIRankReason,
		ScoredAt:        score.ScoredAt,
	}

	err = m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_id"}, {Name: "candidate_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_score", "skill_match_score", "title_score", "seniority_score",
			"recency_score", "gap_penalty", "missing_must_have", "explanation",
			"weights_json", "content_hash", "scored_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("写入评分记录失败: %w: %v", types.ErrPersistence, err)
	}
	return nil
}

// ListJobScores 按总分降序列出岗位下全部评分结果
func (m *MySQL) ListJobScores(ctx context.Context, jobID string) ([]*types.ScoreBreakdown, error) {
	var rows []models.CandidateScore
	err := m.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("total_score DESC, candidate_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询岗位评分列表失败: %w", err)
	}

	result := make([]*types.ScoreBreakdown, 0, len(rows))
	for i := range rows {
		b, err := scoreRowToBreakdown(&rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, nil
}

// UpdateAIRanking 在单个事务内写入整批AI排名结果
func (m *MySQL) UpdateAIRanking(ctx context.Context, jobID string, ranked []types.RankedCandidate) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range ranked {
			res := tx.Model(&models.CandidateScore{}).
				Where("job_id = ? AND candidate_id = ?", jobID, r.CandidateID).
				Updates(map[string]interface{}{
					"ai_rank":        r.Rank,
					"ai_rank_reason": r.Reason,
				})
			if res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("更新AI排名失败: %w: %v", types.ErrPersistence, err)
	}
	return nil
}

// CreateJob 创建岗位及其技能要求，jobID为空时生成UUIDv7
func (m *MySQL) CreateJob(ctx context.Context, job *types.Job) error {
	if job.JobID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("生成岗位ID失败: %w", err)
		}
		job.JobID = id.String()
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.Job{
			JobID:              job.JobID,
			JobTitle:           job.Title,
			JobDescriptionText: job.Description,
			Status:             "ACTIVE",
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"job_title", "job_description_text"}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("写入岗位失败: %w", err)
		}

		// 技能要求整体替换，保持与最新岗位定义一致
		if err := tx.Where("job_id = ?", job.JobID).Delete(&models.JobSkill{}).Error; err != nil {
			return fmt.Errorf("清理旧技能要求失败: %w", err)
		}
		for _, s := range job.MustHave {
			if err := tx.Create(&models.JobSkill{JobID: job.JobID, SkillName: s, Required: true}).Error; err != nil {
				return fmt.Errorf("写入必备技能失败: %w", err)
			}
		}
		for _, s := range job.NiceToHave {
			if err := tx.Create(&models.JobSkill{JobID: job.JobID, SkillName: s, Required: false}).Error; err != nil {
				return fmt.Errorf("写入加分技能失败: %w", err)
			}
		}
		return nil
	})
}

// CreateCandidate 创建候选人及其空窗期记录，candidateID为空时生成UUIDv7
func (m *MySQL) CreateCandidate(ctx context.Context, c *types.Candidate) error {
	if c.CandidateID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("生成候选人ID失败: %w", err)
		}
		c.CandidateID = id.String()
	}

	skillsJSON, err := json.Marshal(c.Skills)
	if err != nil {
		return fmt.Errorf("序列化候选人技能失败: %w", err)
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.Candidate{
			CandidateID:     c.CandidateID,
			PrimaryName:     c.Name,
			LastRoleTitle:   c.LastRoleTitle,
			YearsExperience: c.YearsExperience,
			SkillsJSON:      datatypes.JSON(skillsJSON),
			LastActivityAt:  c.LastActivityAt,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "candidate_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"primary_name", "last_role_title", "years_experience", "skills_json", "last_activity_at",
			}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("写入候选人失败: %w", err)
		}

		if err := tx.Where("candidate_id = ?", c.CandidateID).Delete(&models.CandidateGap{}).Error; err != nil {
			return fmt.Errorf("清理旧空窗期失败: %w", err)
		}
		for _, g := range c.Gaps {
			start, end := g.Start, g.End
			gapRow := models.CandidateGap{
				CandidateID: c.CandidateID,
				GapMonths:   g.Months,
			}
			if !start.IsZero() {
				gapRow.GapStart = &start
			}
			if !end.IsZero() {
				gapRow.GapEnd = &end
			}
			if err := tx.Create(&gapRow).Error; err != nil {
				return fmt.Errorf("写入空窗期失败: %w", err)
			}
		}
		return nil
	})
}

// AddCandidateToJob 将候选人加入岗位候选池，重复加入幂等
func (m *MySQL) AddCandidateToJob(ctx context.Context, jobID, candidateID string) error {
	link := models.JobCandidate{JobID: jobID, CandidateID: candidateID}
	err := m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}, {Name: "candidate_id"}},
		DoNothing: true,
	}).Create(&link).Error
	if err != nil {
		return fmt.Errorf("加入候选池失败: %w", err)
	}
	return nil
}

func scoreRowToBreakdown(row *models.CandidateScore) (*types.ScoreBreakdown, error) {
	var missing []string
	if len(row.MissingMustHave) > 0 {
		if err := json.Unmarshal(row.MissingMustHave, &missing); err != nil {
			return nil, fmt.Errorf("解析缺失技能JSON失败: %w", err)
		}
	}
	var weights types.ScoreWeights
	if len(row.WeightsJSON) > 0 {
		if err := json.Unmarshal(row.WeightsJSON, &weights); err != nil {
			return nil, fmt.Errorf("解析权重JSON失败: %w", err)
		}
	}

	return &types.ScoreBreakdown{
		CandidateID:     row.CandidateID,
		JobID:           row.JobID,
		TotalScore:      row.TotalScore,
		SkillMatchScore: row.SkillMatchScore,
		TitleScore:      row.TitleScore,
		SeniorityScore:  row.SeniorityScore,
		RecencyScore:    row.RecencyScore,
		GapPenalty:      row.GapPenalty,
		MissingMustHave: missing,
		Explanation:     row.Explanation,
		Weights:         weights,
		AIRank:          row.AIRank,
		AIRankReason:    row.AIRankReason,
		ScoredAt:        row.ScoredAt,
	}, nil
}
