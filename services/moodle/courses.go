package moodle

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/certiko/backoffice/core/form"
)

// siteCourseID is Moodle's built-in front-page pseudo course. It comes
// back from the catalog listing but is never offered for selection.
const siteCourseID = 1

type Course struct {
	ID         int    `json:"id"`
	FullName   string `json:"fullname"`
	ShortName  string `json:"shortname"`
	CategoryID int    `json:"categoryid"`
	Visible    int    `json:"visible"`
	StartDate  int64  `json:"startdate"`
	EndDate    int64  `json:"enddate"`
}

// Courses returns the catalog courses that are currently open for
// enrollment: visible, and either without an end date or ending in the
// future.
func (svc *Service) Courses(ctx context.Context) ([]Course, error) {
	var all []Course
	if err := svc.call(ctx, svc.httpClient, "core_course_get_courses", nil, &all); err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	open := make([]Course, 0, len(all))
	for _, crs := range all {
		if crs.Visible != 1 {
			continue
		}
		if crs.EndDate != 0 && crs.EndDate <= now {
			continue
		}
		open = append(open, crs)
	}
	return open, nil
}

// CourseOptions maps open courses onto dropdown options, dropping the
// site pseudo course.
func CourseOptions(courses []Course) []form.Option {
	opts := make([]form.Option, 0, len(courses))
	for _, crs := range courses {
		if crs.ID == siteCourseID {
			continue
		}
		opts = append(opts, form.Option{Name: crs.FullName, Code: strconv.Itoa(crs.ID)})
	}
	return opts
}

// CourseLoader fetches the course catalog with a bounded automatic
// retry. After the retries are exhausted the loader stays in a degraded
// state (empty options plus the last error) until Retry is called,
// which starts the sequence over from attempt zero.
type CourseLoader struct {
	svc     *Service
	retries int
	step    time.Duration

	// test seam; defaults to blocking on a timer
	wait func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	options []form.Option
	lastErr error
}

func NewCourseLoader(svc *Service, retries int, step time.Duration) *CourseLoader {
	if step <= 0 {
		step = 2 * time.Second
	}
	return &CourseLoader{svc: svc, retries: retries, step: step, wait: sleep}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Load runs the fetch sequence: one initial attempt plus up to the
// configured number of retries, backing off linearly (step, 2*step, ...)
// between attempts.
func (l *CourseLoader) Load(ctx context.Context) ([]form.Option, error) {
	var lastErr error
	for attempt := 0; attempt <= l.retries; attempt++ {
		if attempt > 0 {
			if err := l.wait(ctx, time.Duration(attempt)*l.step); err != nil {
				l.store(nil, err)
				return nil, err
			}
		}
		courses, err := l.svc.Courses(ctx)
		if err == nil {
			opts := CourseOptions(courses)
			l.store(opts, nil)
			return opts, nil
		}
		lastErr = err
	}
	l.store(nil, lastErr)
	return nil, lastErr
}

// Retry restarts the full load sequence after a degraded Load.
func (l *CourseLoader) Retry(ctx context.Context) ([]form.Option, error) {
	return l.Load(ctx)
}

// Options returns the most recently loaded options; empty while
// degraded.
func (l *CourseLoader) Options() []form.Option {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.options
}

// Err returns the error left by the last exhausted load, nil after a
// successful one.
func (l *CourseLoader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

func (l *CourseLoader) store(opts []form.Option, err error) {
	l.mu.Lock()
	l.options = opts
	l.lastErr = err
	l.mu.Unlock()
}
