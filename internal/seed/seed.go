// Package seed 生成用于开发环境的随机数据
package seed

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
	"github.com/jobseek-dev/job-board/backend/internal/service"
)

const maxEmailAttempts = 5

type Options struct {
	Employers             int
	JobSeekers            int
	JobsPerEmployer       int
	ApplicationsPerSeeker int
}

type Result struct {
	Users        int
	Jobs         int
	Applications int
}

type Seeder struct {
	svc         *service.Service
	password    string
	emailDomain string
	rnd         *rand.Rand
}

func New(svc *service.Service, password, emailDomain string, rnd *rand.Rand) *Seeder {
	return &Seeder{svc: svc, password: password, emailDomain: emailDomain, rnd: rnd}
}

// register 创建一个随机用户，邮箱重复时换一个重试
func (s *Seeder) register(ctx context.Context, role domain.Role) (*domain.User, error) {
	var lastErr error
	for range maxEmailAttempts {
		name := randomChineseName(s.rnd)
		in := service.RegisterInput{
			Name:     name,
			Email:    emailFromChineseName(name, s.emailDomain, s.rnd),
			Password: s.password,
			Role:     role,
		}
		if role == domain.RoleEmployer {
			in.Company = domain.Company{Name: pick(s.rnd, companies), Location: pick(s.rnd, cities)}
		} else {
			in.Profile = domain.Profile{Location: pick(s.rnd, cities), Skills: randomSubset(s.rnd, skills)}
		}

		user, err := s.svc.Register(ctx, in)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{}
	now := time.Now()

	jobs := make([]*domain.Job, 0, opts.Employers*opts.JobsPerEmployer)
	for range opts.Employers {
		employer, err := s.register(ctx, domain.RoleEmployer)
		if err != nil {
			return res, err
		}
		res.Users++

		for range opts.JobsPerEmployer {
			job, err := s.svc.CreateJob(ctx, employer, randomJobInput(s.rnd, employer.Company.Name, now))
			if err != nil {
				return res, err
			}
			jobs = append(jobs, job)
			res.Jobs++
		}
	}

	for range opts.JobSeekers {
		seeker, err := s.register(ctx, domain.RoleJobSeeker)
		if err != nil {
			return res, err
		}
		res.Users++

		if len(jobs) == 0 {
			continue
		}
		n := min(opts.ApplicationsPerSeeker, len(jobs))
		for _, i := range s.rnd.Perm(len(jobs))[:n] {
			_, err := s.svc.Apply(ctx, seeker, service.ApplyInput{
				JobID:       jobs[i].ID,
				CoverLetter: "您好，我对这个职位很感兴趣。",
				Resume:      "https://example.com/resumes/" + seeker.Email + ".pdf",
			})
			if err != nil {
				slog.Warn("无法创建申请", slog.Int64("job_id", jobs[i].ID), slog.String("error", err.Error()))
				continue
			}
			res.Applications++
		}
	}

	return res, nil
}
