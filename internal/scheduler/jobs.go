package scheduler

import (
	"context"

	"anoa.com/datingapp/pkg/logger"
)

type MemberReindexer interface {
	ReindexMembers(ctx context.Context) (int, error)
}

// ReindexJob refreshes the member search index.
type ReindexJob struct {
	members  MemberReindexer
	schedule string
}

func NewReindexJob(members MemberReindexer, schedule string) *ReindexJob {
	return &ReindexJob{members: members, schedule: schedule}
}

func (j *ReindexJob) Name() string { return "member-reindex" }

func (j *ReindexJob) Schedule() string { return j.schedule }

func (j *ReindexJob) Run(ctx context.Context) error {
	n, err := j.members.ReindexMembers(ctx)
	if err != nil {
		return err
	}
	logger.Info("members reindexed", "count", n)
	return nil
}
