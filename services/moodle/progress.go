package moodle

import (
	"context"
	"net/url"
	"strconv"
)

// EnrolledCourse is a catalog course from a learner's perspective,
// annotated with their completion progress.
type EnrolledCourse struct {
	Course
	Category  string `json:"category"`
	ViewURL   string `json:"viewurl"`
	Completed bool   `json:"completed"`
	Progress  int    `json:"progress"`
}

// EnrolledCourses lists the courses a learner is enrolled in together
// with their progress. A completed course reports 100; otherwise
// progress is the share of finished activities. Per-course completion
// lookups that fail degrade that course to zero progress instead of
// failing the listing.
func (svc *Service) EnrolledCourses(ctx context.Context, userID int) ([]EnrolledCourse, error) {
	params := url.Values{"userid": {strconv.Itoa(userID)}}
	var courses []struct {
		Course
		Category string `json:"category"`
		ViewURL  string `json:"viewurl"`
	}
	if err := svc.call(ctx, svc.httpClient, "core_enrol_get_users_courses", params, &courses); err != nil {
		return nil, err
	}

	enrolled := make([]EnrolledCourse, 0, len(courses))
	for _, crs := range courses {
		ec := EnrolledCourse{Course: crs.Course, Category: crs.Category, ViewURL: crs.ViewURL}
		ec.Completed, ec.Progress = svc.courseProgress(ctx, userID, crs.ID)
		enrolled = append(enrolled, ec)
	}
	return enrolled, nil
}

func (svc *Service) courseProgress(ctx context.Context, userID, courseID int) (bool, int) {
	params := url.Values{
		"userid":   {strconv.Itoa(userID)},
		"courseid": {strconv.Itoa(courseID)},
	}

	var status struct {
		CompletionStatus struct {
			Completed bool `json:"completed"`
		} `json:"completionstatus"`
	}
	if err := svc.call(ctx, svc.lookupClient, "core_completion_get_course_completion_status", params, &status); err == nil && status.CompletionStatus.Completed {
		return true, 100
	}

	var activities struct {
		Statuses []struct {
			State int `json:"state"`
		} `json:"statuses"`
	}
	if err := svc.call(ctx, svc.lookupClient, "core_completion_get_activities_completion_status", params, &activities); err != nil {
		if svc.log != nil {
			svc.log.Warn("moodle: activity completion lookup failed", "course", courseID, "err", err)
		}
		return false, 0
	}
	if len(activities.Statuses) == 0 {
		return false, 0
	}
	done := 0
	for _, act := range activities.Statuses {
		// states 1 (complete) and 2 (complete with pass) both count
		if act.State == 1 || act.State == 2 {
			done++
		}
	}
	return false, done * 100 / len(activities.Statuses)
}
