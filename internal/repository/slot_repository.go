package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// SlotRepository persists committed timetable slots. Slot membership lives in
// join tables whose unique constraints physically forbid double-booking a
// room, teacher or class on the same (day, period).
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository creates a new slot repository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

const slotColumns = `id, day_of_week, lesson_requirement_id, room_id, generated, created_at`

// DeleteGenerated removes all auto-generated slots; manually linked slots are
// kept. Join rows cascade at the database level.
func (r *SlotRepository) DeleteGenerated(ctx context.Context, exec sqlx.ExtContext) error {
	if exec == nil {
		exec = r.db
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM timetable_slots WHERE generated = TRUE`); err != nil {
		return fmt.Errorf("delete generated slots: %w", err)
	}
	return nil
}

// BulkCreate inserts slots with their period, teacher and class join rows.
// Callers pass the generation run's transaction so the whole slot set commits
// or rolls back wholesale.
func (r *SlotRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error {
	if exec == nil {
		exec = r.db
	}
	const insertSlot = `INSERT INTO timetable_slots (id, day_of_week, lesson_requirement_id, room_id, generated, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	now := time.Now().UTC()
	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		slot.CreatedAt = now
		if _, err := exec.ExecContext(ctx, insertSlot, slot.ID, slot.DayOfWeek, slot.LessonRequirementID, slot.RoomID, slot.Generated, slot.CreatedAt); err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
		for _, periodID := range slot.PeriodIDs {
			if _, err := exec.ExecContext(ctx, `INSERT INTO timetable_slot_periods (slot_id, period_id) VALUES ($1, $2)`, slot.ID, periodID); err != nil {
				return fmt.Errorf("insert slot period: %w", err)
			}
			for _, teacherID := range slot.TeacherIDs {
				if _, err := exec.ExecContext(ctx, `INSERT INTO timetable_slot_teachers (slot_id, day_of_week, period_id, teacher_id) VALUES ($1, $2, $3, $4)`, slot.ID, slot.DayOfWeek, periodID, teacherID); err != nil {
					return fmt.Errorf("insert slot teacher: %w", err)
				}
			}
			for _, classID := range slot.ClassIDs {
				if _, err := exec.ExecContext(ctx, `INSERT INTO timetable_slot_classes (slot_id, day_of_week, period_id, class_id) VALUES ($1, $2, $3, $4)`, slot.ID, slot.DayOfWeek, periodID, classID); err != nil {
					return fmt.Errorf("insert slot class: %w", err)
				}
			}
		}
	}
	return nil
}

// ListAll returns every slot with membership attached.
func (r *SlotRepository) ListAll(ctx context.Context) ([]models.TimetableSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots ORDER BY day_of_week ASC, id ASC`, slotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	if err := r.attachMembers(ctx, slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// ListByTeacher returns slots a teacher participates in.
func (r *SlotRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TimetableSlot, error) {
	const query = `SELECT DISTINCT s.id, s.day_of_week, s.lesson_requirement_id, s.room_id, s.generated, s.created_at FROM timetable_slots s JOIN timetable_slot_teachers t ON t.slot_id = s.id WHERE t.teacher_id = $1 ORDER BY s.day_of_week ASC, s.id ASC`
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, teacherID); err != nil {
		return nil, fmt.Errorf("list slots by teacher: %w", err)
	}
	if err := r.attachMembers(ctx, slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// ListByClass returns slots a class participates in.
func (r *SlotRepository) ListByClass(ctx context.Context, classID string) ([]models.TimetableSlot, error) {
	const query = `SELECT DISTINCT s.id, s.day_of_week, s.lesson_requirement_id, s.room_id, s.generated, s.created_at FROM timetable_slots s JOIN timetable_slot_classes c ON c.slot_id = s.id WHERE c.class_id = $1 ORDER BY s.day_of_week ASC, s.id ASC`
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, classID); err != nil {
		return nil, fmt.Errorf("list slots by class: %w", err)
	}
	if err := r.attachMembers(ctx, slots); err != nil {
		return nil, err
	}
	return slots, nil
}

type slotMember struct {
	SlotID   string `db:"slot_id"`
	MemberID string `db:"member_id"`
}

func (r *SlotRepository) attachMembers(ctx context.Context, slots []models.TimetableSlot) error {
	if len(slots) == 0 {
		return nil
	}

	var periods []slotMember
	if err := r.db.SelectContext(ctx, &periods, `SELECT sp.slot_id, sp.period_id AS member_id FROM timetable_slot_periods sp JOIN periods p ON p.id = sp.period_id ORDER BY p.number ASC`); err != nil {
		return fmt.Errorf("list slot periods: %w", err)
	}
	var teachers []slotMember
	if err := r.db.SelectContext(ctx, &teachers, `SELECT DISTINCT slot_id, teacher_id AS member_id FROM timetable_slot_teachers ORDER BY member_id ASC`); err != nil {
		return fmt.Errorf("list slot teachers: %w", err)
	}
	var classes []slotMember
	if err := r.db.SelectContext(ctx, &classes, `SELECT DISTINCT slot_id, class_id AS member_id FROM timetable_slot_classes ORDER BY member_id ASC`); err != nil {
		return fmt.Errorf("list slot classes: %w", err)
	}

	periodMap := make(map[string][]string)
	for _, row := range periods {
		periodMap[row.SlotID] = append(periodMap[row.SlotID], row.MemberID)
	}
	teacherMap := make(map[string][]string)
	for _, row := range teachers {
		teacherMap[row.SlotID] = append(teacherMap[row.SlotID], row.MemberID)
	}
	classMap := make(map[string][]string)
	for _, row := range classes {
		classMap[row.SlotID] = append(classMap[row.SlotID], row.MemberID)
	}

	for i := range slots {
		slots[i].PeriodIDs = periodMap[slots[i].ID]
		slots[i].TeacherIDs = teacherMap[slots[i].ID]
		slots[i].ClassIDs = classMap[slots[i].ID]
	}
	return nil
}
