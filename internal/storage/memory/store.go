package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/signetpay/payment-ledger-service/internal/interfaces"
	"github.com/signetpay/payment-ledger-service/internal/models"
)

type accountKey struct {
	userID        int64
	userAccountID int64
}

// Store is an in-memory implementation of the ledger and user stores.
// It backs the unit tests and local runs without Postgres. All access
// is serialized behind one mutex.
type Store struct {
	mu sync.Mutex

	users      map[int64]models.User
	nextUserID int64

	accounts      map[int64]models.Account
	accountIndex  map[accountKey]int64
	nextAccountID int64

	transactions map[uuid.UUID]models.Transaction
	nextTxID     int64

	allowOverdraft bool

	// failBeforeInsert simulates a durable-unit failure between the
	// account upsert and the transaction insert. Nothing may be
	// observable afterwards.
	failBeforeInsert error
}

func NewStore(allowOverdraft bool) *Store {
	return &Store{
		users:          make(map[int64]models.User),
		accounts:       make(map[int64]models.Account),
		accountIndex:   make(map[accountKey]int64),
		transactions:   make(map[uuid.UUID]models.Transaction),
		allowOverdraft: allowOverdraft,
	}
}

// FailNextApply makes every subsequent Apply fail with err after the
// account is resolved but before anything is committed. Pass nil to
// clear.
func (s *Store) FailNextApply(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failBeforeInsert = err
}

func (s *Store) FindTransaction(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx, ok := s.transactions[transactionID]; ok {
		return &tx, nil
	}

	return nil, nil
}

func (s *Store) FindAccount(ctx context.Context, userID, userAccountID int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.accountIndex[accountKey{userID, userAccountID}]; ok {
		acct := s.accounts[id]
		return &acct, nil
	}

	return nil, nil
}

// Apply mirrors the Postgres durable unit: the maps are only touched
// after every check has passed, so a failure leaves no partial state.
func (s *Store) Apply(ctx context.Context, in models.InboundTransaction) (*models.Transaction, *models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[in.TransactionID]; ok {
		return nil, nil, models.ErrDuplicateTransaction
	}

	key := accountKey{in.UserID, in.AccountID}

	var next models.Account

	if id, ok := s.accountIndex[key]; ok {
		next = s.accounts[id]
		next.Balance = next.Balance.Add(in.Amount)
	} else {
		// First transaction both creates and funds the account; the
		// amount is applied exactly once, as the seed balance.
		next = models.Account{
			ID:            s.nextAccountID + 1,
			UserID:        in.UserID,
			UserAccountID: in.AccountID,
			Balance:       in.Amount,
		}
	}

	if !s.allowOverdraft && next.Balance.IsNegative() {
		return nil, nil, models.ErrInsufficientFunds
	}

	if s.failBeforeInsert != nil {
		return nil, nil, s.failBeforeInsert
	}

	if _, existed := s.accountIndex[key]; !existed {
		s.nextAccountID++
	}

	s.accounts[next.ID] = next
	s.accountIndex[key] = next.ID

	s.nextTxID++
	tx := models.Transaction{
		ID:            s.nextTxID,
		TransactionID: in.TransactionID,
		AccountID:     next.ID,
		Amount:        in.Amount,
		CreatedAt:     time.Now().UTC(),
	}
	s.transactions[in.TransactionID] = tx

	return &tx, &next, nil
}

func (s *Store) UserExists(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.users[userID]

	return ok, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok {
		return &u, nil
	}

	return nil, models.ErrUserNotFound
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}

	return nil, models.ErrUserNotFound
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (s *Store) FindUserByCredentialsInUse(ctx context.Context, username, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return models.ErrUsernameTaken
		}

		if u.Email == email {
			return models.ErrEmailTaken
		}
	}

	return nil
}

func (s *Store) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUserID++
	user.ID = s.nextUserID

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	s.users[user.ID] = user

	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return nil, models.ErrUserNotFound
	}

	user.CreatedAt = existing.CreatedAt
	s.users[user.ID] = user

	return &user, nil
}

func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return models.ErrUserNotFound
	}

	delete(s.users, userID)

	// Cascade: the user's accounts and their transactions go too.
	for id, acct := range s.accounts {
		if acct.UserID != userID {
			continue
		}

		for txID, tx := range s.transactions {
			if tx.AccountID == id {
				delete(s.transactions, txID)
			}
		}

		delete(s.accountIndex, accountKey{acct.UserID, acct.UserAccountID})
		delete(s.accounts, id)
	}

	return nil
}

func (s *Store) GetUserAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Account

	for _, acct := range s.accounts {
		if acct.UserID == userID {
			out = append(out, acct)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UserAccountID < out[j].UserAccountID })

	return out, nil
}

func (s *Store) GetUserTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Transaction

	for _, tx := range s.transactions {
		acct, ok := s.accounts[tx.AccountID]
		if ok && acct.UserID == userID {
			out = append(out, tx)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

var (
	_ interfaces.LedgerStore = (*Store)(nil)
	_ interfaces.UserStore   = (*Store)(nil)
)
