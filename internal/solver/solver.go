package solver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/timetable-api/internal/models"
)

const (
	// MinBlockLength and MaxBlockLength bound a requirement's contiguous run.
	MinBlockLength = 1
	MaxBlockLength = 3
)

// CellKey addresses one availability cell.
type CellKey struct {
	Owner    models.OwnerType
	OwnerID  string
	Day      models.Day
	PeriodID string
}

// Snapshot is the immutable input of one generation run. The solver never
// mutates it and performs no I/O, so identical snapshots yield identical
// results.
type Snapshot struct {
	Periods      []models.Period
	Rooms        []models.Room
	Classes      map[string]models.Class
	Subjects     map[string]models.Subject
	Teachers     map[string]models.Teacher
	GradeDays    map[string][]models.Day
	DefaultDays  []models.Day
	ActiveDays   []models.Day
	Requirements []models.LessonRequirement
	Availability map[CellKey]models.AvailabilityState

	// ExistingSlots are placements that survive this run (manual links, or
	// previously generated slots when the caller keeps them). They block
	// their cells and count toward their requirement's weekly quota.
	ExistingSlots []Placement
}

// Placement is one scheduled occurrence of a requirement.
type Placement struct {
	RequirementID string
	Day           models.Day
	PeriodIDs     []string
	RoomID        *string
	TeacherIDs    []string
	ClassIDs      []string
}

// Conflict records a requirement whose weekly count could not be fully placed.
type Conflict struct {
	RequirementID string
	Needed        int
	Placed        int
}

// Result carries the committed placements, the per-step trace and the
// conflict report of a run.
type Result struct {
	Placements []Placement
	Conflicts  []Conflict
	Steps      []string
}

// ValidationError aggregates fatal input problems detected before solving.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "invalid solver input: " + strings.Join(e.Issues, "; ")
}

type occupancyKey struct {
	day      models.Day
	periodID string
	ownerID  string
}

type engine struct {
	snap Snapshot

	periods     []models.Period // ordered by Number asc
	rooms       []models.Room   // ordered by ID asc
	teacherBusy map[occupancyKey]bool
	classBusy   map[occupancyKey]bool
	roomBusy    map[occupancyKey]bool

	existingCount map[string]int

	placements []Placement
	conflicts  []Conflict
	steps      []string
}

type candidate struct {
	day         models.Day
	start       int // index into engine.periods
	periods     []models.Period
	room        *models.Room
	conditional int
}

// Solve runs one deterministic generation pass over the snapshot. Fatal input
// problems return a *ValidationError; unplaceable requirements are reported
// as Conflicts, never as errors.
func Solve(snap Snapshot) (*Result, error) {
	if err := validate(snap); err != nil {
		return nil, err
	}

	e := &engine{
		snap:          snap,
		teacherBusy:   make(map[occupancyKey]bool),
		classBusy:     make(map[occupancyKey]bool),
		roomBusy:      make(map[occupancyKey]bool),
		existingCount: make(map[string]int),
	}

	for _, existing := range snap.ExistingSlots {
		e.existingCount[existing.RequirementID]++
		for _, periodID := range existing.PeriodIDs {
			for _, teacherID := range existing.TeacherIDs {
				e.teacherBusy[occupancyKey{existing.Day, periodID, teacherID}] = true
			}
			for _, classID := range existing.ClassIDs {
				e.classBusy[occupancyKey{existing.Day, periodID, classID}] = true
			}
			if existing.RoomID != nil {
				e.roomBusy[occupancyKey{existing.Day, periodID, *existing.RoomID}] = true
			}
		}
	}

	e.periods = make([]models.Period, len(snap.Periods))
	copy(e.periods, snap.Periods)
	sort.Slice(e.periods, func(i, j int) bool { return e.periods[i].Number < e.periods[j].Number })

	e.rooms = make([]models.Room, len(snap.Rooms))
	copy(e.rooms, snap.Rooms)
	sort.Slice(e.rooms, func(i, j int) bool { return e.rooms[i].ID < e.rooms[j].ID })

	for _, req := range e.orderRequirements() {
		e.placeRequirement(req)
	}

	return &Result{Placements: e.placements, Conflicts: e.conflicts, Steps: e.steps}, nil
}

func validate(snap Snapshot) error {
	var issues []string
	add := func(format string, args ...interface{}) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	if len(snap.Periods) == 0 {
		add("no periods configured")
	}
	if len(snap.ActiveDays) == 0 {
		add("no active days selected")
	}
	for _, day := range snap.ActiveDays {
		if !day.Valid() {
			add("unknown active day %q", day)
		}
	}

	periodIDs := make(map[string]bool, len(snap.Periods))
	for _, period := range snap.Periods {
		periodIDs[period.ID] = true
	}

	cellKeys := make([]CellKey, 0, len(snap.Availability))
	for key := range snap.Availability {
		cellKeys = append(cellKeys, key)
	}
	sort.Slice(cellKeys, func(i, j int) bool {
		a, b := cellKeys[i], cellKeys[j]
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		if a.OwnerID != b.OwnerID {
			return a.OwnerID < b.OwnerID
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.PeriodID < b.PeriodID
	})
	for _, key := range cellKeys {
		state := snap.Availability[key]
		if !key.Owner.Valid() {
			add("availability entry with unknown owner type %q", key.Owner)
		}
		if !key.Day.Valid() {
			add("availability entry for unknown day %q", key.Day)
		}
		if !periodIDs[key.PeriodID] {
			add("availability entry references unknown period %s", key.PeriodID)
		}
		if !state.Valid() {
			add("availability entry with malformed state %q", state)
		}
	}

	for _, req := range snap.Requirements {
		if req.Count < 1 {
			add("requirement %s: weekly count must be at least 1", req.ID)
		}
		if req.Length < MinBlockLength || req.Length > MaxBlockLength {
			add("requirement %s: unsupported block length %d", req.ID, req.Length)
		}
		if len(req.TeacherIDs) == 0 {
			add("requirement %s: no teachers attached", req.ID)
		}
		switch req.Kind {
		case models.KindSubject:
			if req.SubjectID == nil || *req.SubjectID == "" {
				add("requirement %s: subject requirement without subject", req.ID)
			} else if _, ok := snap.Subjects[*req.SubjectID]; !ok {
				add("requirement %s: unknown subject %s", req.ID, *req.SubjectID)
			}
			if len(req.ClassIDs) == 0 {
				add("requirement %s: subject requirement without classes", req.ID)
			}
		case models.KindMeeting:
			if req.Title == nil || *req.Title == "" {
				add("requirement %s: meeting requirement without title", req.ID)
			}
		default:
			add("requirement %s: unknown kind %q", req.ID, req.Kind)
		}
		for _, classID := range req.ClassIDs {
			if _, ok := snap.Classes[classID]; !ok {
				add("requirement %s: unknown class %s", req.ID, classID)
			}
		}
		for _, teacherID := range req.TeacherIDs {
			if _, ok := snap.Teachers[teacherID]; !ok {
				add("requirement %s: unknown teacher %s", req.ID, teacherID)
			}
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// orderRequirements applies the most-constrained-variable heuristic: fewest
// legal placements first, meetings before subject lessons, then id order.
// Candidate counts are measured before any new placement is committed, so
// cells taken by surviving slots already reduce them.
func (e *engine) orderRequirements() []models.LessonRequirement {
	type ranked struct {
		req        models.LessonRequirement
		candidates int
	}

	items := make([]ranked, 0, len(e.snap.Requirements))
	for _, req := range e.snap.Requirements {
		items = append(items, ranked{req: req, candidates: len(e.enumerateCandidates(req))})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].candidates != items[j].candidates {
			return items[i].candidates < items[j].candidates
		}
		if items[i].req.IsMeeting() != items[j].req.IsMeeting() {
			return items[i].req.IsMeeting()
		}
		return items[i].req.ID < items[j].req.ID
	})

	ordered := make([]models.LessonRequirement, len(items))
	for i, item := range items {
		ordered[i] = item.req
	}
	return ordered
}

func (e *engine) placeRequirement(req models.LessonRequirement) {
	placed := e.existingCount[req.ID]
	for placed < req.Count {
		best := e.bestCandidate(req)
		if best == nil {
			break
		}
		e.commit(req, *best)
		placed++
	}
	if placed < req.Count {
		e.conflicts = append(e.conflicts, Conflict{RequirementID: req.ID, Needed: req.Count, Placed: placed})
		e.steps = append(e.steps, fmt.Sprintf("conflict: %s placed %d of %d occurrences", e.describe(req), placed, req.Count))
	}
}

// bestCandidate returns the highest-ranked legal candidate or nil when none
// remain. Ranking: fewest CONDITIONAL cells, then earliest day, then earliest
// start period. Room choice inside a candidate is already deterministic.
func (e *engine) bestCandidate(req models.LessonRequirement) *candidate {
	candidates := e.enumerateCandidates(req)
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.conditional < best.conditional {
			best = c
		}
	}
	return &best
}

// enumerateCandidates lists every legal (day, start run, room) placement in
// deterministic order: week order, then ascending start period number.
func (e *engine) enumerateCandidates(req models.LessonRequirement) []candidate {
	var result []candidate
	for _, day := range e.candidateDays(req) {
		for start := 0; start+req.Length <= len(e.periods); start++ {
			run := e.periods[start : start+req.Length]
			if !runSchedulable(run) {
				continue
			}
			if !e.runLegal(req, day, run) {
				continue
			}
			room, ok := e.pickRoom(req, day, run)
			if !ok {
				continue
			}
			result = append(result, candidate{
				day:         day,
				start:       start,
				periods:     run,
				room:        room,
				conditional: e.conditionalCells(req, day, run),
			})
		}
	}
	return result
}

// candidateDays intersects the run's global day filter with every involved
// class's effective active days. Meetings without classes use the global set.
func (e *engine) candidateDays(req models.LessonRequirement) []models.Day {
	days := models.SortDays(e.snap.ActiveDays)
	if len(req.ClassIDs) == 0 {
		return days
	}
	result := make([]models.Day, 0, len(days))
	for _, day := range days {
		ok := true
		for _, classID := range req.ClassIDs {
			if !e.classActiveOn(classID, day) {
				ok = false
				break
			}
		}
		if ok {
			result = append(result, day)
		}
	}
	return result
}

func (e *engine) classActiveOn(classID string, day models.Day) bool {
	class, ok := e.snap.Classes[classID]
	if !ok {
		return false
	}
	days, ok := e.snap.GradeDays[class.Grade]
	if !ok || len(days) == 0 {
		days = e.snap.DefaultDays
	}
	for _, active := range days {
		if active == day {
			return true
		}
	}
	return false
}

// runSchedulable requires the window to be contiguous period numbers with no
// break period inside.
func runSchedulable(run []models.Period) bool {
	for i, period := range run {
		if period.IsBreak {
			return false
		}
		if i > 0 && run[i].Number != run[i-1].Number+1 {
			return false
		}
	}
	return true
}

func (e *engine) runLegal(req models.LessonRequirement, day models.Day, run []models.Period) bool {
	for _, period := range run {
		for _, teacherID := range req.TeacherIDs {
			if e.teacherBusy[occupancyKey{day, period.ID, teacherID}] {
				return false
			}
			if e.stateOf(models.OwnerTeacher, teacherID, day, period.ID) == models.StateUnavailable {
				return false
			}
		}
		for _, classID := range req.ClassIDs {
			if e.classBusy[occupancyKey{day, period.ID, classID}] {
				return false
			}
			if e.stateOf(models.OwnerClass, classID, day, period.ID) == models.StateUnavailable {
				return false
			}
		}
		if req.SubjectID != nil {
			if e.stateOf(models.OwnerSubject, *req.SubjectID, day, period.ID) == models.StateUnavailable {
				return false
			}
		}
	}
	return true
}

func (e *engine) stateOf(owner models.OwnerType, ownerID string, day models.Day, periodID string) models.AvailabilityState {
	if state, ok := e.snap.Availability[CellKey{Owner: owner, OwnerID: ownerID, Day: day, PeriodID: periodID}]; ok {
		return state
	}
	return models.StateAvailable
}

func (e *engine) conditionalCells(req models.LessonRequirement, day models.Day, run []models.Period) int {
	count := 0
	for _, period := range run {
		for _, teacherID := range req.TeacherIDs {
			if e.stateOf(models.OwnerTeacher, teacherID, day, period.ID) == models.StateConditional {
				count++
			}
		}
		for _, classID := range req.ClassIDs {
			if e.stateOf(models.OwnerClass, classID, day, period.ID) == models.StateConditional {
				count++
			}
		}
		if req.SubjectID != nil {
			if e.stateOf(models.OwnerSubject, *req.SubjectID, day, period.ID) == models.StateConditional {
				count++
			}
		}
	}
	return count
}

// pickRoom resolves the room for a candidate. Subject lessons always take a
// room; meetings only when a room type is requested. Rooms are scanned in
// ascending id order so the choice is reproducible.
func (e *engine) pickRoom(req models.LessonRequirement, day models.Day, run []models.Period) (*models.Room, bool) {
	if req.IsMeeting() && req.RoomType == nil {
		return nil, true
	}
	needed := e.totalStudents(req)
	for i := range e.rooms {
		room := &e.rooms[i]
		if req.RoomType != nil {
			if room.Type != *req.RoomType {
				continue
			}
			if room.Capacity > 0 && needed > 0 && room.Capacity < needed {
				continue
			}
		}
		if e.roomFree(room.ID, day, run) {
			return room, true
		}
	}
	return nil, false
}

func (e *engine) totalStudents(req models.LessonRequirement) int {
	total := 0
	for _, classID := range req.ClassIDs {
		total += e.snap.Classes[classID].StudentCount
	}
	return total
}

func (e *engine) roomFree(roomID string, day models.Day, run []models.Period) bool {
	for _, period := range run {
		if e.roomBusy[occupancyKey{day, period.ID, roomID}] {
			return false
		}
	}
	return true
}

func (e *engine) commit(req models.LessonRequirement, c candidate) {
	periodIDs := make([]string, len(c.periods))
	for i, period := range c.periods {
		periodIDs[i] = period.ID
		for _, teacherID := range req.TeacherIDs {
			e.teacherBusy[occupancyKey{c.day, period.ID, teacherID}] = true
		}
		for _, classID := range req.ClassIDs {
			e.classBusy[occupancyKey{c.day, period.ID, classID}] = true
		}
		if c.room != nil {
			e.roomBusy[occupancyKey{c.day, period.ID, c.room.ID}] = true
		}
	}

	placement := Placement{
		RequirementID: req.ID,
		Day:           c.day,
		PeriodIDs:     periodIDs,
		TeacherIDs:    append([]string(nil), req.TeacherIDs...),
		ClassIDs:      append([]string(nil), req.ClassIDs...),
	}
	location := "no room"
	if c.room != nil {
		roomID := c.room.ID
		placement.RoomID = &roomID
		location = c.room.Name
	}
	e.placements = append(e.placements, placement)

	first := c.periods[0].Number
	last := c.periods[len(c.periods)-1].Number
	if first == last {
		e.steps = append(e.steps, fmt.Sprintf("placed %s on %s period %d (%s)", e.describe(req), c.day, first, location))
	} else {
		e.steps = append(e.steps, fmt.Sprintf("placed %s on %s periods %d-%d (%s)", e.describe(req), c.day, first, last, location))
	}
}

// describe renders a requirement for trace lines and conflict reports.
func (e *engine) describe(req models.LessonRequirement) string {
	if req.IsMeeting() {
		if req.Title != nil {
			return fmt.Sprintf("meeting %q", *req.Title)
		}
		return "meeting"
	}
	name := ""
	if req.SubjectID != nil {
		if subject, ok := e.snap.Subjects[*req.SubjectID]; ok {
			name = subject.Name
		} else {
			name = *req.SubjectID
		}
	}
	classNames := make([]string, 0, len(req.ClassIDs))
	for _, classID := range req.ClassIDs {
		if class, ok := e.snap.Classes[classID]; ok {
			classNames = append(classNames, class.Name)
		} else {
			classNames = append(classNames, classID)
		}
	}
	return fmt.Sprintf("%s for %s", name, strings.Join(classNames, ", "))
}
