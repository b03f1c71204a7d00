// Package usecasetest содержит in-memory репозитории для тестов use case'ов.
package usecasetest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/cryptopay-backend/internal/domain/entity"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/repository"
	"github.com/ignatzorin/cryptopay-backend/internal/domain/valueobject"
	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

// Store — общее хранилище, чтобы баланс и заявки менялись согласованно.
type Store struct {
	mu        sync.Mutex
	nextID    int64
	Platforms map[int64]*entity.Platform
	Withdraws map[int64]*entity.WithdrawalRequest
	Records   map[int64]*entity.DepositRecord
	Txs       map[int64]*entity.DepositTransaction
	Addresses map[int64]*entity.DepositAddress
	Balances  map[uuid.UUID]decimal.Decimal
}

func NewStore() *Store {
	return &Store{
		Platforms: make(map[int64]*entity.Platform),
		Withdraws: make(map[int64]*entity.WithdrawalRequest),
		Records:   make(map[int64]*entity.DepositRecord),
		Txs:       make(map[int64]*entity.DepositTransaction),
		Addresses: make(map[int64]*entity.DepositAddress),
		Balances:  make(map[uuid.UUID]decimal.Decimal),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Balance возвращает текущий баланс пользователя.
func (s *Store) Balance(userID uuid.UUID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Balances[userID]
}

func (s *Store) SetBalance(userID uuid.UUID, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Balances[userID] = amount
}

// --- платформы ---

type PlatformRepo struct{ *Store }

func (r PlatformRepo) Create(_ context.Context, p *entity.Platform) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Platforms {
		if existing.Kind == p.Kind && existing.Symbol == p.Symbol {
			return apperror.Duplicate("platform exists")
		}
	}
	p.ID = r.id()
	cp := *p
	r.Platforms[p.ID] = &cp
	return nil
}

func (r PlatformRepo) Update(_ context.Context, p *entity.Platform) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Platforms[p.ID]; !ok {
		return apperror.ErrPlatformNotFound
	}
	cp := *p
	r.Platforms[p.ID] = &cp
	return nil
}

func (r PlatformRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Platforms[id]; !ok {
		return apperror.ErrPlatformNotFound
	}
	delete(r.Platforms, id)
	return nil
}

func (r PlatformRepo) FindByID(_ context.Context, id int64) (*entity.Platform, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Platforms[id]
	if !ok {
		return nil, apperror.ErrPlatformNotFound
	}
	cp := *p
	return &cp, nil
}

func (r PlatformRepo) FindBySymbol(_ context.Context, kind valueobject.PlatformKind, symbol string) (*entity.Platform, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.Platforms {
		if p.Kind == kind && strings.EqualFold(p.Symbol, symbol) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.ErrPlatformNotFound
}

func (r PlatformRepo) List(_ context.Context, filter repository.PlatformFilter) ([]*entity.Platform, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Platform
	for _, p := range r.Platforms {
		if filter.Kind != "" && p.Kind != filter.Kind {
			continue
		}
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- вывод ---

type WithdrawalRepo struct{ *Store }

func (r WithdrawalRepo) Create(_ context.Context, w *entity.WithdrawalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w.ID = r.id()
	cp := *w
	r.Withdraws[w.ID] = &cp
	return nil
}

func (r WithdrawalRepo) FindByID(_ context.Context, id int64) (*entity.WithdrawalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.Withdraws[id]
	if !ok {
		return nil, apperror.ErrWithdrawalNotFound
	}
	cp := *w
	return &cp, nil
}

func (r WithdrawalRepo) List(_ context.Context, filter repository.RequestFilter) ([]*entity.WithdrawalRequest, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.WithdrawalRequest
	for _, w := range r.Withdraws {
		if !matches(filter, w.UserID, w.PlatformID, string(w.Status)) {
			continue
		}
		cp := *w
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, filter), len(out), nil
}

func (r WithdrawalRepo) UpdateStatus(_ context.Context, w *entity.WithdrawalRequest, from valueobject.RequestStatus, debit *decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.Withdraws[w.ID]
	if !ok {
		return apperror.ErrWithdrawalNotFound
	}
	if stored.Status != from {
		return repository.ErrStaleStatus
	}
	if debit != nil {
		balance := r.Balances[w.UserID]
		if balance.LessThan(*debit) {
			return repository.ErrInsufficientFunds
		}
		r.Balances[w.UserID] = balance.Sub(*debit)
	}
	cp := *w
	r.Withdraws[w.ID] = &cp
	return nil
}

func (r WithdrawalRepo) Delete(_ context.Context, id int64, status valueobject.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.Withdraws[id]
	if !ok || stored.Status != status {
		return repository.ErrStaleStatus
	}
	delete(r.Withdraws, id)
	return nil
}

// --- ручные пополнения ---

type DepositRecordRepo struct{ *Store }

func (r DepositRecordRepo) Create(_ context.Context, rec *entity.DepositRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = r.id()
	cp := *rec
	r.Records[rec.ID] = &cp
	return nil
}

func (r DepositRecordRepo) FindByID(_ context.Context, id int64) (*entity.DepositRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.Records[id]
	if !ok {
		return nil, apperror.ErrDepositRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r DepositRecordRepo) List(_ context.Context, filter repository.RequestFilter) ([]*entity.DepositRecord, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.DepositRecord
	for _, rec := range r.Records {
		if !matches(filter, rec.UserID, rec.PlatformID, string(rec.Status)) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, filter), len(out), nil
}

func (r DepositRecordRepo) UpdateStatus(_ context.Context, rec *entity.DepositRecord, from valueobject.RequestStatus, credit *decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.Records[rec.ID]
	if !ok {
		return apperror.ErrDepositRecordNotFound
	}
	if stored.Status != from {
		return repository.ErrStaleStatus
	}
	if credit != nil {
		r.Balances[rec.UserID] = r.Balances[rec.UserID].Add(*credit)
	}
	cp := *rec
	r.Records[rec.ID] = &cp
	return nil
}

func (r DepositRecordRepo) Delete(_ context.Context, id int64, status valueobject.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.Records[id]
	if !ok || stored.Status != status {
		return repository.ErrStaleStatus
	}
	delete(r.Records, id)
	return nil
}

// --- транзакции пополнения ---

type DepositTransactionRepo struct{ *Store }

func (r DepositTransactionRepo) Create(_ context.Context, tx *entity.DepositTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Txs {
		if existing.PlatformID == tx.PlatformID && existing.TransactionHash == tx.TransactionHash {
			return apperror.Duplicate("transaction exists")
		}
	}
	tx.ID = r.id()
	cp := *tx
	r.Txs[tx.ID] = &cp
	return nil
}

func (r DepositTransactionRepo) FindByID(_ context.Context, id int64) (*entity.DepositTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.Txs[id]
	if !ok {
		return nil, apperror.ErrDepositTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (r DepositTransactionRepo) FindByHash(_ context.Context, platformID int64, hash string) (*entity.DepositTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.Txs {
		if tx.PlatformID == platformID && tx.TransactionHash == strings.TrimSpace(hash) {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, apperror.ErrDepositTransactionNotFound
}

func (r DepositTransactionRepo) List(_ context.Context, filter repository.RequestFilter) ([]*entity.DepositTransaction, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.DepositTransaction
	for _, tx := range r.Txs {
		if !matches(filter, tx.UserID, tx.PlatformID, string(tx.Status)) {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, filter), len(out), nil
}

func (r DepositTransactionRepo) Update(_ context.Context, tx *entity.DepositTransaction, from valueobject.TransactionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.Txs[tx.ID]
	if !ok {
		return apperror.ErrDepositTransactionNotFound
	}
	if stored.Status != from {
		return repository.ErrStaleStatus
	}
	cp := *tx
	r.Txs[tx.ID] = &cp
	return nil
}

func (r DepositTransactionRepo) Complete(_ context.Context, tx *entity.DepositTransaction, credit decimal.Decimal, seen *decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.Txs[tx.ID]
	if !ok {
		return apperror.ErrDepositTransactionNotFound
	}
	if stored.Status != valueobject.TransactionStatusConfirmed || !sameAmount(stored.CreditedAmount, seen) {
		return repository.ErrStaleStatus
	}
	r.Balances[tx.UserID] = r.Balances[tx.UserID].Add(credit)
	cp := *tx
	r.Txs[tx.ID] = &cp
	return nil
}

// --- адреса ---

type DepositAddressRepo struct{ *Store }

func (r DepositAddressRepo) Create(_ context.Context, a *entity.DepositAddress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Addresses {
		if existing.IsActive && existing.UserID == a.UserID && existing.PlatformID == a.PlatformID {
			return apperror.Duplicate("address exists")
		}
		if existing.PlatformID == a.PlatformID && existing.Address == a.Address && tagOf(existing) == tagOf(a) {
			return repository.ErrAddressTaken
		}
	}
	a.ID = r.id()
	cp := *a
	r.Addresses[a.ID] = &cp
	return nil
}

func sameAmount(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func tagOf(a *entity.DepositAddress) string {
	if a.Tag == nil {
		return ""
	}
	return *a.Tag
}

func (r DepositAddressRepo) FindActive(_ context.Context, userID uuid.UUID, platformID int64) (*entity.DepositAddress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.Addresses {
		if a.IsActive && a.UserID == userID && a.PlatformID == platformID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperror.ErrDepositAddressNotFound
}

func (r DepositAddressRepo) FindByID(_ context.Context, id int64) (*entity.DepositAddress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.Addresses[id]
	if !ok {
		return nil, apperror.ErrDepositAddressNotFound
	}
	cp := *a
	return &cp, nil
}

func (r DepositAddressRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*entity.DepositAddress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.DepositAddress
	for _, a := range r.Addresses {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r DepositAddressRepo) MarkUsed(_ context.Context, a *entity.DepositAddress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.Addresses[a.ID]; ok {
		stored.LastUsedAt = a.LastUsedAt
	}
	return nil
}

// --- баланс ---

type BalanceRepo struct{ *Store }

func (r BalanceRepo) GetBalance(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return r.Balance(userID), nil
}

// Notification — записанное уведомление.
type Notification struct {
	UserID uuid.UUID
	Name   string
	Data   any
}

// Notifier запоминает отправленные события.
type Notifier struct {
	mu     sync.Mutex
	Events []Notification
}

func (n *Notifier) Notify(_ context.Context, userID uuid.UUID, name string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, Notification{UserID: userID, Name: name, Data: data})
}

// Names возвращает имена событий по порядку.
func (n *Notifier) Names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	names := make([]string, 0, len(n.Events))
	for _, e := range n.Events {
		names = append(names, e.Name)
	}
	return names
}

func matches(filter repository.RequestFilter, userID uuid.UUID, platformID int64, status string) bool {
	if filter.UserID != nil && *filter.UserID != userID {
		return false
	}
	if filter.PlatformID != nil && *filter.PlatformID != platformID {
		return false
	}
	if filter.Status != "" && filter.Status != status {
		return false
	}
	return true
}

func page[T any](items []T, filter repository.RequestFilter) []T {
	if filter.Offset >= len(items) {
		return []T{}
	}
	items = items[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return items
}
