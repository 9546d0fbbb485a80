package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"anoa.com/datingapp/internal/entity"
	"anoa.com/datingapp/pkg/logger"
	"anoa.com/datingapp/pkg/pagination"
	"anoa.com/datingapp/pkg/sanitize"
	"github.com/meilisearch/meilisearch-go"
)

const (
	MembersIndex   = "members"
	indexBatchSize = 500
)

// MemberIndex keeps the full text member index in sync and answers searches with
// user ids in relevance order.
type MemberIndex interface {
	IndexMember(ctx context.Context, user *entity.User) error
	IndexMembers(ctx context.Context, users []entity.User) error
	DeleteMember(ctx context.Context, id uint) error
	SearchMembers(ctx context.Context, query string, p pagination.Params) ([]uint, int64, error)
}

type meiliSearchService struct {
	client meilisearch.ServiceManager
}

func NewMeiliSearchService(client meilisearch.ServiceManager) MemberIndex {
	s := &meiliSearchService{client: client}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterable := []any{"gender", "city", "country"}
	if _, err := s.client.Index(MembersIndex).UpdateFilterableAttributes(&filterable); err != nil {
		logger.Warn("failed to update members filterable attributes", "error", err)
	}

	sortable := []string{"last_active", "created_at"}
	if _, err := s.client.Index(MembersIndex).UpdateSortableAttributes(&sortable); err != nil {
		logger.Warn("failed to update members sortable attributes", "error", err)
	}
}

type memberDoc struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	KnownAs      string `json:"known_as"`
	Gender       string `json:"gender"`
	City         string `json:"city"`
	Country      string `json:"country"`
	Introduction string `json:"introduction"`
	LookingFor   string `json:"looking_for"`
	Interests    string `json:"interests"`
	CreatedAt    int64  `json:"created_at"`
	LastActive   int64  `json:"last_active"`
}

func newMemberDoc(u *entity.User) memberDoc {
	return memberDoc{
		ID:           u.ID,
		Username:     u.Username,
		KnownAs:      cleanForIndex(u.KnownAs),
		Gender:       u.Gender,
		City:         cleanForIndex(u.City),
		Country:      cleanForIndex(u.Country),
		Introduction: cleanForIndex(deref(u.Introduction)),
		LookingFor:   cleanForIndex(deref(u.LookingFor)),
		Interests:    cleanForIndex(deref(u.Interests)),
		CreatedAt:    u.CreatedAt.Unix(),
		LastActive:   u.LastActive.Unix(),
	}
}

func (s *meiliSearchService) IndexMember(ctx context.Context, user *entity.User) error {
	doc := newMemberDoc(user)
	task, err := s.client.Index(MembersIndex).AddDocuments([]memberDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	logger.Debug("indexed member", "user_id", user.ID, "task_uid", task.TaskUID)
	return nil
}

// IndexMembers upserts users in batches.
func (s *meiliSearchService) IndexMembers(ctx context.Context, users []entity.User) error {
	for start := 0; start < len(users); start += indexBatchSize {
		end := start + indexBatchSize
		if end > len(users) {
			end = len(users)
		}

		docs := make([]memberDoc, 0, end-start)
		for i := start; i < end; i++ {
			docs = append(docs, newMemberDoc(&users[i]))
		}
		if _, err := s.client.Index(MembersIndex).AddDocuments(docs, strPtr("id")); err != nil {
			return fmt.Errorf("index members %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func (s *meiliSearchService) DeleteMember(ctx context.Context, id uint) error {
	_, err := s.client.Index(MembersIndex).DeleteDocument(strconv.FormatUint(uint64(id), 10))
	return err
}

type searchHits struct {
	Hits []struct {
		ID uint `json:"id"`
	} `json:"hits"`
	EstimatedTotalHits int64 `json:"estimatedTotalHits"`
	TotalHits          int64 `json:"totalHits"`
}

// SearchMembers returns matching member ids in relevance order plus the estimated
// total number of hits.
func (s *meiliSearchService) SearchMembers(ctx context.Context, query string, p pagination.Params) ([]uint, int64, error) {
	p = p.Normalize()
	raw, err := s.client.Index(MembersIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Offset:               int64(p.Offset()),
		Limit:                int64(p.PageSize),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search members: %w", err)
	}

	var result searchHits
	if raw != nil {
		if err := json.Unmarshal(*raw, &result); err != nil {
			return nil, 0, fmt.Errorf("decode search hits: %w", err)
		}
	}

	ids := make([]uint, 0, len(result.Hits))
	for _, h := range result.Hits {
		ids = append(ids, h.ID)
	}

	total := result.EstimatedTotalHits
	if result.TotalHits > total {
		total = result.TotalHits
	}
	return ids, total, nil
}

func cleanForIndex(content string) string {
	return strings.Join(strings.Fields(sanitize.Text(content)), " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string {
	return &s
}
