package agriintel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Pagination describes one page of a list endpoint.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Page is the payload of a list endpoint.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// ListOptions filters and pages a List call. Filters are sent as query parameters.
type ListOptions struct {
	Page    int
	Limit   int
	Filters url.Values
}

func (o ListOptions) params() url.Values {
	params := url.Values{}
	for k, vs := range o.Filters {
		params[k] = append([]string(nil), vs...)
	}
	if o.Page > 0 {
		params.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		params.Set("limit", strconv.Itoa(o.Limit))
	}
	return params
}

// Resource is a typed CRUD endpoint of the dashboard API.
type Resource[T any] struct {
	svc  *BaseService
	path string
	ttl  time.Duration
}

func newResource[T any](svc *BaseService, path string, ttl time.Duration) *Resource[T] {
	return &Resource[T]{svc: svc, path: path, ttl: ttl}
}

// Path returns the collection path, e.g. /animals.
func (r *Resource[T]) Path() string { return r.path }

// List fetches one page of the collection.
func (r *Resource[T]) List(ctx context.Context, opts ListOptions) ServiceResponse[Page[T]] {
	return Request[Page[T]](ctx, r.svc, r.path, RequestOptions{Params: opts.params(), CacheTTL: r.ttl})
}

// Get fetches one item by id.
func (r *Resource[T]) Get(ctx context.Context, id string) ServiceResponse[T] {
	return Request[T](ctx, r.svc, r.item(id), RequestOptions{CacheTTL: r.ttl, Route: r.itemRoute()})
}

// Create posts a new item.
func (r *Resource[T]) Create(ctx context.Context, item T) ServiceResponse[T] {
	return r.mutate(ctx, r.path, r.path, http.MethodPost, item)
}

// Update replaces an item.
func (r *Resource[T]) Update(ctx context.Context, id string, item T) ServiceResponse[T] {
	return r.mutate(ctx, r.item(id), r.itemRoute(), http.MethodPut, item)
}

// Delete removes an item. The payload is whatever the API echoes back.
func (r *Resource[T]) Delete(ctx context.Context, id string) ServiceResponse[json.RawMessage] {
	resp := r.svc.Do(ctx, r.item(id), RequestOptions{Method: http.MethodDelete, Route: r.itemRoute()})
	if resp.Success {
		r.svc.InvalidateCache(r.path)
	}
	return resp
}

func (r *Resource[T]) mutate(ctx context.Context, endpoint, route, method string, item T) ServiceResponse[T] {
	resp := Request[T](ctx, r.svc, endpoint, RequestOptions{Method: method, Body: item, Route: route})
	if resp.Success {
		r.svc.InvalidateCache(r.path)
	}
	return resp
}

func (r *Resource[T]) item(id string) string {
	return strings.TrimRight(r.path, "/") + "/" + url.PathEscape(id)
}

func (r *Resource[T]) itemRoute() string {
	return strings.TrimRight(r.path, "/") + "/{id}"
}

// Animal is a livestock record.
type Animal struct {
	ID        string    `json:"_id,omitempty"`
	TagID     string    `json:"tagId"`
	RFIDTag   string    `json:"rfidTag,omitempty"`
	Name      string    `json:"name,omitempty"`
	Species   string    `json:"species"`
	Breed     string    `json:"breed,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	BirthDate time.Time `json:"birthDate,omitzero"`
	Weight    float64   `json:"weight,omitempty"`
	Status    string    `json:"status,omitempty"`
	Location  string    `json:"location,omitempty"`
}

// HealthRecord is a veterinary event for one animal.
type HealthRecord struct {
	ID           string    `json:"_id,omitempty"`
	AnimalID     string    `json:"animalId"`
	RecordType   string    `json:"recordType"`
	Date         time.Time `json:"date,omitzero"`
	Diagnosis    string    `json:"diagnosis,omitempty"`
	Treatment    string    `json:"treatment,omitempty"`
	Veterinarian string    `json:"veterinarian,omitempty"`
	Cost         float64   `json:"cost,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

// Transaction is a financial entry.
type Transaction struct {
	ID          string    `json:"_id,omitempty"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency,omitempty"`
	Date        time.Time `json:"date,omitzero"`
	Description string    `json:"description,omitempty"`
	AnimalID    string    `json:"animalId,omitempty"`
}

// FeedingRecord is one feeding of an animal or group.
type FeedingRecord struct {
	ID       string    `json:"_id,omitempty"`
	AnimalID string    `json:"animalId,omitempty"`
	FeedType string    `json:"feedType"`
	Quantity float64   `json:"quantity"`
	Unit     string    `json:"unit,omitempty"`
	Date     time.Time `json:"date,omitzero"`
	Cost     float64   `json:"cost,omitempty"`
}

// BreedingRecord tracks a mating and its outcome.
type BreedingRecord struct {
	ID              string    `json:"_id,omitempty"`
	DamID           string    `json:"damId"`
	SireID          string    `json:"sireId,omitempty"`
	BreedingDate    time.Time `json:"breedingDate,omitzero"`
	ExpectedDueDate time.Time `json:"expectedDueDate,omitzero"`
	PregnancyStatus string    `json:"pregnancyStatus,omitempty"`
	OffspringCount  int       `json:"offspringCount,omitempty"`
	BreedingMethod  string    `json:"breedingMethod,omitempty"`
}

// RFIDTag is an electronic identifier assigned to an animal.
type RFIDTag struct {
	ID         string    `json:"_id,omitempty"`
	TagNumber  string    `json:"tagNumber"`
	AnimalID   string    `json:"animalId,omitempty"`
	Status     string    `json:"status,omitempty"`
	AssignedAt time.Time `json:"assignedAt,omitzero"`
}

// Task is a farm work item.
type Task struct {
	ID          string    `json:"_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	Status      string    `json:"status,omitempty"`
	AssignedTo  string    `json:"assignedTo,omitempty"`
	DueDate     time.Time `json:"dueDate,omitzero"`
}

// APIService is the dashboard's own REST API.
type APIService struct {
	base *BaseService

	Animals         *Resource[Animal]
	HealthRecords   *Resource[HealthRecord]
	Transactions    *Resource[Transaction]
	FeedingRecords  *Resource[FeedingRecord]
	BreedingRecords *Resource[BreedingRecord]
	RFIDTags        *Resource[RFIDTag]
	Tasks           *Resource[Task]
}

// NewAPIService wires the dashboard resources onto base.
func NewAPIService(base *BaseService) *APIService {
	return &APIService{
		base:            base,
		Animals:         newResource[Animal](base, "/animals", 5*time.Minute),
		HealthRecords:   newResource[HealthRecord](base, "/health-records", 10*time.Minute),
		Transactions:    newResource[Transaction](base, "/financial", 2*time.Minute),
		FeedingRecords:  newResource[FeedingRecord](base, "/feeding", 5*time.Minute),
		BreedingRecords: newResource[BreedingRecord](base, "/breeding", 10*time.Minute),
		RFIDTags:        newResource[RFIDTag](base, "/rfid", time.Minute),
		Tasks:           newResource[Task](base, "/tasks", time.Minute),
	}
}

// Base returns the underlying request pipeline.
func (a *APIService) Base() *BaseService { return a.base }
