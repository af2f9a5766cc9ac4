// Package directory holds the schools, students, classes and course orders
// that decide which catalog courses a viewer sees. The catalog never mutates
// these entities; only order approval changes a school's approved courses.
package directory

import (
	_ "embed"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/ubook/internal/access"
	"github.com/p-n-ai/ubook/internal/activity"
)

//go:embed seed.yaml
var seedYAML []byte

type School struct {
	ID                string   `yaml:"id" json:"id"`
	Name              string   `yaml:"name" json:"name"`
	Location          string   `yaml:"location" json:"location"`
	ApprovedCourseIDs []string `yaml:"approved_course_ids" json:"approvedCourseIds"`
}

type Student struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	SchoolID string `yaml:"school_id" json:"schoolId"`
}

type Class struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	SchoolID   string   `yaml:"school_id" json:"schoolId"`
	CourseID   string   `yaml:"course_id" json:"courseId"`
	TeacherID  string   `yaml:"teacher_id" json:"teacherId"`
	StudentIDs []string `yaml:"student_ids" json:"studentIds"`
}

// Order is a school's pending request to unlock a course.
type Order struct {
	ID            string `yaml:"id" json:"id"`
	CourseID      string `yaml:"course_id" json:"courseId"`
	CourseName    string `yaml:"course_name" json:"courseName"`
	SchoolID      string `yaml:"school_id" json:"branchId"`
	SchoolName    string `yaml:"school_name" json:"branchName"`
	Seats         int    `yaml:"seats" json:"seats"`
	PricePerSeat  int    `yaml:"price_per_seat" json:"pricePerSeat"`
	Date          string `yaml:"date" json:"date"`
	RequesterName string `yaml:"requester_name" json:"requesterName"`
}

// TotalAmount is seats times the per-seat price.
func (o Order) TotalAmount() int { return o.Seats * o.PricePerSeat }

// Seed is the directory's serialized form.
type Seed struct {
	Schools  []School  `yaml:"schools"`
	Students []Student `yaml:"students"`
	Classes  []Class   `yaml:"classes"`
	Orders   []Order   `yaml:"orders"`
}

// Viewer is who is looking at the catalog.
type Viewer struct {
	Role     access.Role
	SchoolID string
	UserID   string
}

// Directory is an in-memory, concurrency-safe view of the seed.
type Directory struct {
	events activity.Logger

	mu       sync.RWMutex
	schools  []School
	students []Student
	classes  []Class
	orders   []Order
}

// DefaultSeed parses the compiled-in directory.
func DefaultSeed() (Seed, error) {
	return ParseSeed(seedYAML)
}

// ParseSeed decodes a YAML directory.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parsing directory seed: %w", err)
	}
	return seed, nil
}

// New creates a directory from seed. A nil logger discards events.
func New(seed Seed, events activity.Logger) *Directory {
	if events == nil {
		events = activity.NopLogger{}
	}
	d := &Directory{
		events:   events,
		schools:  slices.Clone(seed.Schools),
		students: slices.Clone(seed.Students),
		classes:  slices.Clone(seed.Classes),
		orders:   slices.Clone(seed.Orders),
	}
	for i := range d.schools {
		d.schools[i].ApprovedCourseIDs = slices.Clone(d.schools[i].ApprovedCourseIDs)
	}
	return d
}

func (d *Directory) Schools() []School {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]School, len(d.schools))
	for i, s := range d.schools {
		out[i] = cloneSchool(s)
	}
	return out
}

func (d *Directory) School(id string) (School, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i := d.schoolIndexLocked(id); i >= 0 {
		return cloneSchool(d.schools[i]), true
	}
	return School{}, false
}

// Students returns the students of a school.
func (d *Directory) Students(schoolID string) []Student {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []Student{}
	for _, s := range d.students {
		if s.SchoolID == schoolID {
			out = append(out, s)
		}
	}
	return out
}

// Classes returns the classes of a school.
func (d *Directory) Classes(schoolID string) []Class {
	return d.classesWhere(func(c Class) bool { return c.SchoolID == schoolID })
}

// ClassesForCourse returns every class running a course.
func (d *Directory) ClassesForCourse(courseID string) []Class {
	return d.classesWhere(func(c Class) bool { return c.CourseID == courseID })
}

func (d *Directory) Class(id string) (Class, bool) {
	classes := d.classesWhere(func(c Class) bool { return c.ID == id })
	if len(classes) == 0 {
		return Class{}, false
	}
	return classes[0], true
}

// PendingOrders returns the open orders of a school, or of every school when
// schoolID is empty.
func (d *Directory) PendingOrders(schoolID string) []Order {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []Order{}
	for _, o := range d.orders {
		if schoolID == "" || o.SchoolID == schoolID {
			out = append(out, o)
		}
	}
	return out
}

// ApproveOrder unlocks the ordered course for the school and closes the
// order. The course is added to the approved list at most once.
func (d *Directory) ApproveOrder(orderID string) (Order, bool) {
	var closed *Order
	defer func() { d.emit(activity.OrderApproved, closed) }()
	d.mu.Lock()
	defer d.mu.Unlock()

	oi := d.orderIndexLocked(orderID)
	if oi < 0 {
		return Order{}, false
	}
	order := d.orders[oi]
	si := d.schoolIndexLocked(order.SchoolID)
	if si < 0 {
		return Order{}, false
	}

	school := &d.schools[si]
	if !slices.Contains(school.ApprovedCourseIDs, order.CourseID) {
		school.ApprovedCourseIDs = append(school.ApprovedCourseIDs, order.CourseID)
	}
	d.orders = slices.Delete(d.orders, oi, oi+1)

	closed = &order
	return order, true
}

// DeclineOrder closes an order without unlocking anything. Confirmation is
// the caller's responsibility.
func (d *Directory) DeclineOrder(orderID string) (Order, bool) {
	var closed *Order
	defer func() { d.emit(activity.OrderDeclined, closed) }()
	d.mu.Lock()
	defer d.mu.Unlock()

	oi := d.orderIndexLocked(orderID)
	if oi < 0 {
		return Order{}, false
	}
	order := d.orders[oi]
	d.orders = slices.Delete(d.orders, oi, oi+1)

	closed = &order
	return order, true
}

// VisibleCourseIDs returns the course ids v may view. restrict is false when
// the viewer sees the whole catalog.
func (d *Directory) VisibleCourseIDs(v Viewer) (ids []string, restrict bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids = []string{}
	switch access.ViewScope(v.Role) {
	case access.ScopeAll:
		return nil, false
	case access.ScopePurchased:
		if i := d.schoolIndexLocked(v.SchoolID); i >= 0 {
			ids = slices.Clone(d.schools[i].ApprovedCourseIDs)
		}
	case access.ScopeAssigned:
		for _, c := range d.classes {
			if c.TeacherID == v.UserID && !slices.Contains(ids, c.CourseID) {
				ids = append(ids, c.CourseID)
			}
		}
	case access.ScopeEnrolled:
		for _, c := range d.classes {
			if slices.Contains(c.StudentIDs, v.UserID) && !slices.Contains(ids, c.CourseID) {
				ids = append(ids, c.CourseID)
			}
		}
	}
	return ids, true
}

func (d *Directory) classesWhere(keep func(Class) bool) []Class {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []Class{}
	for _, c := range d.classes {
		if keep(c) {
			c.StudentIDs = slices.Clone(c.StudentIDs)
			out = append(out, c)
		}
	}
	return out
}

func (d *Directory) schoolIndexLocked(id string) int {
	return slices.IndexFunc(d.schools, func(s School) bool { return s.ID == id })
}

func (d *Directory) orderIndexLocked(id string) int {
	return slices.IndexFunc(d.orders, func(o Order) bool { return o.ID == id })
}

// emit runs after the directory lock is released; o is nil when nothing closed.
func (d *Directory) emit(eventType string, o *Order) {
	if o == nil {
		return
	}
	err := d.events.LogEvent(activity.Event{
		Type:      eventType,
		CourseID:  o.CourseID,
		Data:      map[string]any{"orderId": o.ID, "schoolId": o.SchoolID, "seats": o.Seats},
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("failed to record order event", "type", eventType, "order_id", o.ID, "error", err)
	}
}

func cloneSchool(s School) School {
	s.ApprovedCourseIDs = slices.Clone(s.ApprovedCourseIDs)
	return s
}
