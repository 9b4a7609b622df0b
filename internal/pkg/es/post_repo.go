package es

import (
	"context"
	"errors"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
	"github.com/goccy/go-json"
)

const MaxSearchDepth = 1000

type PostRepo interface {
	IndexPost(ctx context.Context, post *PostES) error
	UpdateStatus(ctx context.Context, id uint64, status string) error
	DeletePost(ctx context.Context, id uint64) error
	Search(ctx context.Context, query *PostSearchQuery) ([]*PostES, int64, error)
}

type PostRepoImpl struct {
	client *elasticsearch.TypedClient
	index  string
}

func NewPostRepo(client *elasticsearch.TypedClient, index string) PostRepo {
	return &PostRepoImpl{client: client, index: index}
}

func (s *PostRepoImpl) IndexPost(ctx context.Context, post *PostES) error {
	_, err := s.client.Index(s.index).
		Id(strconv.FormatUint(post.ID, 10)).
		Document(post).
		Do(ctx)
	return err
}

// UpdateStatus 发布结果回写，文档不存在时忽略
func (s *PostRepoImpl) UpdateStatus(ctx context.Context, id uint64, status string) error {
	doc, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return err
	}
	_, err = s.client.Update(s.index, strconv.FormatUint(id, 10)).
		Doc(json.RawMessage(doc)).
		Do(ctx)
	if isStatus(err, NotFoundCode) {
		return nil
	}
	return err
}

func (s *PostRepoImpl) DeletePost(ctx context.Context, id uint64) error {
	_, err := s.client.Delete(s.index, strconv.FormatUint(id, 10)).Do(ctx)
	if isStatus(err, NotFoundCode) {
		return nil
	}
	return err
}

// Search 活动内检索，有关键词按相关度排序，否则按时间倒序
func (s *PostRepoImpl) Search(ctx context.Context, query *PostSearchQuery) ([]*PostES, int64, error) {
	if query.From >= MaxSearchDepth {
		return []*PostES{}, 0, nil
	}

	filters := []types.Query{
		{Term: map[string]types.TermQuery{"campaign_id": {Value: query.CampaignID}}},
	}
	if query.Platform != "" {
		filters = append(filters, types.Query{Term: map[string]types.TermQuery{"platform": {Value: query.Platform}}})
	}
	if query.Status != "" {
		filters = append(filters, types.Query{Term: map[string]types.TermQuery{"status": {Value: query.Status}}})
	}

	boolQuery := &types.BoolQuery{Filter: filters}
	if query.Text != "" {
		boolQuery.Must = []types.Query{{
			MultiMatch: &types.MultiMatchQuery{
				Query:  query.Text,
				Fields: []string{"title^2", "content", "author"},
			},
		}}
	}

	req := s.client.Search().
		Index(s.index).
		Query(&types.Query{Bool: boolQuery}).
		From(query.From).
		Size(query.Size)
	if query.Text == "" {
		req.Sort(types.SortOptions{SortOptions: map[string]types.FieldSort{
			"created_at": {Order: &sortorder.Desc},
		}})
	}

	resp, err := req.Do(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if resp.Hits.Total != nil {
		total = resp.Hits.Total.Value
	}
	results := make([]*PostES, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		if hit.Source_ == nil {
			continue
		}
		var post PostES
		if err = json.Unmarshal(hit.Source_, &post); err != nil {
			continue
		}
		results = append(results, &post)
	}
	return results, total, nil
}

func isStatus(err error, code int) bool {
	var e *types.ElasticsearchError
	return errors.As(err, &e) && e.Status == code
}
