package course

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/ottolearn-tutor/internal/domain/course"
	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor/vectors"
	"github.com/yungbote/ottolearn-tutor/internal/platform/dbctx"
	"github.com/yungbote/ottolearn-tutor/internal/platform/logger"
)

const DefaultInsertBatchSize = 50

// ChunkRecord is one chunk as handed to the store by ingestion. Position is coerced by the
// store (truncated, non-finite becomes 0); Embedding is validated before it is encoded.
type ChunkRecord struct {
	ChunkID   string
	CourseID  string
	Position  float64
	Content   string
	Embedding []float32
}

type ScoredChunk struct {
	ChunkID  string
	Content  string
	Position int
	Score    float64
}

type ReplaceStats struct {
	Deleted  int64
	Inserted int
	Batches  []int
}

type CourseChunkRepo interface {
	// ReplaceCourseChunks swaps the full chunk set of courseID inside one transaction.
	ReplaceCourseChunks(dbc dbctx.Context, courseID string, chunks []ChunkRecord) (ReplaceStats, error)
	// NearestByCourse returns up to limit chunks of courseID ordered by descending cosine
	// similarity to query; ties fall back to position then chunk id.
	NearestByCourse(dbc dbctx.Context, courseID string, query []float32, limit int) ([]ScoredChunk, error)
	ListByCourse(dbc dbctx.Context, courseID string) ([]*types.CourseChunk, error)
	CountByCourse(dbc dbctx.Context, courseID string) (int64, error)
}

type courseChunkRepo struct {
	db        *gorm.DB
	log       *logger.Logger
	batchSize int
	locks     *keyedMutex
}

func NewCourseChunkRepo(db *gorm.DB, baseLog *logger.Logger, batchSize int) CourseChunkRepo {
	if batchSize <= 0 {
		batchSize = DefaultInsertBatchSize
	}
	return &courseChunkRepo{
		db:        db,
		log:       baseLog.With("repo", "CourseChunkRepo"),
		batchSize: batchSize,
		locks:     newKeyedMutex(),
	}
}

func (r *courseChunkRepo) ReplaceCourseChunks(dbc dbctx.Context, courseID string, chunks []ChunkRecord) (ReplaceStats, error) {
	stats := ReplaceStats{}
	rows, err := buildRows(courseID, chunks)
	if err != nil {
		return stats, err
	}
	courseID = rows[0].CourseID

	unlock := r.locks.Lock(courseID)
	defer unlock()

	postgres := r.isPostgres()
	err = dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		if postgres {
			if err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, "course_chunks:"+courseID).Error; err != nil {
				return storeErr("lock", err)
			}
		}
		res := tx.Where("course_id = ?", courseID).Delete(&types.CourseChunk{})
		if res.Error != nil {
			return storeErr("delete", res.Error)
		}
		stats.Deleted = res.RowsAffected

		for _, batch := range partition(rows, r.batchSize) {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "chunk_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"course_id", "position", "content", "embedding", "updated_at"}),
			}).Create(&batch).Error; err != nil {
				return storeErr("upsert", err)
			}
			stats.Batches = append(stats.Batches, len(batch))
			stats.Inserted += len(batch)
		}
		return nil
	})
	if err != nil {
		r.log.Warn("Replace course chunks rolled back",
			"course_id", courseID,
			"chunks", len(rows),
			"batches_written", len(stats.Batches),
			"error", err,
		)
		return ReplaceStats{}, storeErr("replace", err)
	}

	r.log.Debug("Replaced course chunks",
		"course_id", courseID,
		"deleted", stats.Deleted,
		"inserted", stats.Inserted,
		"batches", len(stats.Batches),
	)
	return stats, nil
}

func (r *courseChunkRepo) NearestByCourse(dbc dbctx.Context, courseID string, query []float32, limit int) ([]ScoredChunk, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" || limit <= 0 {
		return []ScoredChunk{}, nil
	}
	q, err := vectors.Normalize(query)
	if err != nil {
		return nil, err
	}
	if r.isPostgres() {
		return r.nearestPostgres(dbc, courseID, q, limit)
	}
	return r.nearestInProcess(dbc, courseID, q, limit)
}

func (r *courseChunkRepo) nearestPostgres(dbc dbctx.Context, courseID string, q []float32, limit int) ([]ScoredChunk, error) {
	vec := pgvector.NewVector(q)
	var rows []ScoredChunk
	err := dbc.DB(r.db).Raw(`
		SELECT chunk_id,
		       content,
		       position,
		       1 - (embedding <=> ?::vector) AS score
		FROM course_chunks
		WHERE course_id = ?
		ORDER BY embedding <=> ?::vector, position ASC, chunk_id ASC
		LIMIT ?
	`, vec, courseID, vec, limit).Scan(&rows).Error
	if err != nil {
		return nil, storeErr("query", err)
	}
	if rows == nil {
		rows = []ScoredChunk{}
	}
	return rows, nil
}

// nearestInProcess scores every chunk of the course in Go. Used for SQLite, which has no
// vector operators.
func (r *courseChunkRepo) nearestInProcess(dbc dbctx.Context, courseID string, q []float32, limit int) ([]ScoredChunk, error) {
	var rows []*types.CourseChunk
	if err := dbc.DB(r.db).
		Where("course_id = ?", courseID).
		Find(&rows).Error; err != nil {
		return nil, storeErr("query", err)
	}
	out := make([]ScoredChunk, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, ScoredChunk{
			ChunkID:  row.ChunkID,
			Content:  row.Content,
			Position: row.Position,
			Score:    vectors.Cosine(q, row.Embedding.Slice()),
		})
	}
	SortScored(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *courseChunkRepo) ListByCourse(dbc dbctx.Context, courseID string) ([]*types.CourseChunk, error) {
	var rows []*types.CourseChunk
	if err := dbc.DB(r.db).
		Where("course_id = ?", courseID).
		Order("position ASC, chunk_id ASC").
		Find(&rows).Error; err != nil {
		return nil, storeErr("list", err)
	}
	return rows, nil
}

func (r *courseChunkRepo) CountByCourse(dbc dbctx.Context, courseID string) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.CourseChunk{}).
		Where("course_id = ?", courseID).
		Count(&n).Error; err != nil {
		return 0, storeErr("count", err)
	}
	return n, nil
}

func (r *courseChunkRepo) isPostgres() bool {
	return r.db != nil && r.db.Dialector != nil && r.db.Dialector.Name() == "postgres"
}

// SortScored orders by descending score, then ascending position, then chunk id.
func SortScored(items []ScoredChunk) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].ChunkID < items[j].ChunkID
	})
}

func buildRows(courseID string, chunks []ChunkRecord) ([]types.CourseChunk, error) {
	if len(chunks) == 0 {
		return nil, invalidInput("no chunks generated from course material")
	}
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		courseID = strings.TrimSpace(chunks[0].CourseID)
	}
	if courseID == "" {
		return nil, invalidInput("chunks are missing course identifiers")
	}
	seen := make(map[string]struct{}, len(chunks))
	rows := make([]types.CourseChunk, 0, len(chunks))
	for i, ch := range chunks {
		if strings.TrimSpace(ch.CourseID) != courseID {
			return nil, invalidInput("chunk %d belongs to course %q, expected %q", i, ch.CourseID, courseID)
		}
		id := strings.TrimSpace(ch.ChunkID)
		if id == "" {
			return nil, invalidInput("chunk %d is missing a chunk id", i)
		}
		if _, dup := seen[id]; dup {
			return nil, invalidInput("chunk id %q appears more than once", id)
		}
		seen[id] = struct{}{}
		emb, err := vectors.Normalize(ch.Embedding)
		if err != nil {
			return nil, fmt.Errorf("chunk %q: %w", id, err)
		}
		rows = append(rows, types.CourseChunk{
			ChunkID:   id,
			CourseID:  courseID,
			Position:  vectors.TruncatePosition(ch.Position),
			Content:   ch.Content,
			Embedding: pgvector.NewVector(emb),
		})
	}
	return rows, nil
}

func partition[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	out := make([][]T, 0, (len(items)+size-1)/max(size, 1))
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
