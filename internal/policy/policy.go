// Package policy 集中了所有的权限判断。
// Decide 是纯函数，不访问数据库，调用方需要先把目标实体加载好。
package policy

import (
	"github.com/jobseek-dev/job-board/backend/internal/domain"
)

type Action int

const (
	CreateJob Action = iota
	UpdateJob
	DeleteJob
	CreateApplication
	ReviewApplication
	DeleteApplication
	ReadApplication
	ListJobApplications
)

func (a Action) String() string {
	switch a {
	case CreateJob:
		return "create job"
	case UpdateJob:
		return "update job"
	case DeleteJob:
		return "delete job"
	case CreateApplication:
		return "create application"
	case ReviewApplication:
		return "review application"
	case DeleteApplication:
		return "delete application"
	case ReadApplication:
		return "read application"
	case ListJobApplications:
		return "list job applications"
	}
	return "unknown"
}

// Target 是被操作的实体。
// 对申请的操作需要同时给出 Application 和它所属的 Job。
type Target struct {
	Job         *domain.Job
	Application *domain.Application
}

// Decide 返回 nil 表示允许。
// 拒绝时返回的错误可以用 errors.Is 判断为 domain.ErrForbidden，
// 删除非 pending 的申请则是 domain.ErrRuleViolation。
func Decide(actor *domain.User, action Action, target Target) error {
	if actor == nil {
		return domain.NotAuthenticated("not authenticated")
	}

	switch action {
	case CreateJob:
		if actor.Role == domain.RoleEmployer || actor.IsAdmin() {
			return nil
		}
		return domain.Forbidden("only employers can post jobs")

	case UpdateJob, DeleteJob:
		if ownsJob(actor, target.Job) || actor.IsAdmin() {
			return nil
		}
		return domain.Forbidden("not authorized to " + action.String())

	case CreateApplication:
		if actor.Role == domain.RoleJobSeeker {
			return nil
		}
		return domain.Forbidden("only job seekers can apply for jobs")

	case ReviewApplication:
		if ownsJob(actor, target.Job) || actor.IsAdmin() {
			return nil
		}
		return domain.Forbidden("not authorized to update this application")

	case DeleteApplication:
		if !isApplicant(actor, target.Application) {
			return domain.Forbidden("not authorized to delete this application")
		}
		if target.Application.Status != domain.ApplicationStatusPending {
			return domain.Violation("cannot delete an application that has been reviewed")
		}
		return nil

	case ReadApplication:
		if isApplicant(actor, target.Application) || ownsJob(actor, target.Job) || actor.IsAdmin() {
			return nil
		}
		return domain.Forbidden("not authorized to view this application")

	case ListJobApplications:
		if ownsJob(actor, target.Job) || actor.IsAdmin() {
			return nil
		}
		return domain.Forbidden("not authorized to view applications for this job")
	}

	return domain.Forbidden("unknown action")
}

func ownsJob(actor *domain.User, job *domain.Job) bool {
	return job != nil && job.PostedBy == actor.ID
}

func isApplicant(actor *domain.User, app *domain.Application) bool {
	return app != nil && app.ApplicantID == actor.ID
}
