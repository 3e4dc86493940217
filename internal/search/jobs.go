// Package search 把职位同步到 Elasticsearch，并提供全文检索
package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
)

type JobIndex struct {
	es      *elasticsearch.Client
	index   string
	timeout time.Duration
}

func NewClient(addrs []string, username, password string) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: addrs,
		Username:  username,
		Password:  password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	}
	return elasticsearch.NewClient(cfg)
}

func NewJobIndex(es *elasticsearch.Client, index string, timeout time.Duration) *JobIndex {
	return &JobIndex{
		es:      es,
		index:   index,
		timeout: timeout,
	}
}

// jobDocument 是写入索引的文档，只包含参与检索的字段
type jobDocument struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	Skills      []string  `json:"skills"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func newJobDocument(job *domain.Job) jobDocument {
	return jobDocument{
		ID:          job.ID,
		Title:       job.Title,
		Description: job.Description,
		Company:     job.Company,
		Location:    job.Location,
		Category:    job.Category,
		Skills:      job.Requirements.Skills,
		Status:      string(job.Status),
		CreatedAt:   job.CreatedAt,
	}
}

func (i *JobIndex) IndexJob(ctx context.Context, job *domain.Job) error {
	b, err := json.Marshal(newJobDocument(job))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: strconv.FormatInt(job.ID, 10),
		Body:       bytes.NewReader(b),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("index job %d: %s", job.ID, res.Status())
	}
	return nil
}

func (i *JobIndex) DeleteJob(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	req := esapi.DeleteRequest{
		Index:      i.index,
		DocumentID: strconv.FormatInt(id, 10),
	}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	// 文档本来就不存在也视为成功
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete job %d: %s", id, res.Status())
	}
	return nil
}

func searchQuery(q string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^3", "company^2", "skills^2", "description", "location", "category"},
			},
		},
		"_source": false,
		"size":    size,
	}
}

// SearchJobIDs 返回按相关度排序的职位 id，结果还需要和数据库中的过滤条件取交集
func (i *JobIndex) SearchJobIDs(ctx context.Context, q string, size int) ([]int64, error) {
	b, err := json.Marshal(searchQuery(q, size))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("search jobs: %s", res.Status())
	}

	return parseHitIDs(res.Body)
}

func parseHitIDs(body io.Reader) ([]int64, error) {
	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
