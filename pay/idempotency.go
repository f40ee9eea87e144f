package pay

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"shopfront/models"
	"shopfront/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const IdempotencyHeader = "Idempotency-Key"

var errDuplicateKey = errors.New("duplicate idempotency key")

// IdempotencyStore persists idempotency records.
type IdempotencyStore interface {
	Insert(ctx context.Context, rec models.IdempotencyRecord) error
	Find(ctx context.Context, key string) (models.IdempotencyRecord, error)
	SaveResponse(ctx context.Context, key string, response map[string]interface{}) error
}

// MongoIdempotencyStore keeps records in a collection with a TTL index on expires_at.
type MongoIdempotencyStore struct {
	collection *mongo.Collection
}

func NewMongoIdempotencyStore(collection *mongo.Collection) *MongoIdempotencyStore {
	return &MongoIdempotencyStore{collection: collection}
}

// InitIndexes creates the unique key index and the TTL index.
func (s *MongoIdempotencyStore) InitIndexes(ctx context.Context) error {
	idxs := []mongo.IndexModel{
		{
			Keys:    bson.M{"key": 1},
			Options: options.Index().SetUnique(true).SetName("unique_key"),
		},
		{
			Keys:    bson.M{"expires_at": 1},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at"),
		},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, idxs)
	return err
}

func (s *MongoIdempotencyStore) Insert(ctx context.Context, rec models.IdempotencyRecord) error {
	_, err := s.collection.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return errDuplicateKey
	}
	return err
}

func (s *MongoIdempotencyStore) Find(ctx context.Context, key string) (models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	err := s.collection.FindOne(ctx, bson.M{"key": key}).Decode(&rec)
	return rec, err
}

func (s *MongoIdempotencyStore) SaveResponse(ctx context.Context, key string, response map[string]interface{}) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{"response": response}},
	)
	return err
}

// Idempotency replays the stored response of a mutating request when the
// client repeats it with the same Idempotency-Key.
type Idempotency struct {
	store  IdempotencyStore
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewIdempotency(store IdempotencyStore, logger *zap.Logger) *Idempotency {
	return &Idempotency{store: store, ttl: 24 * time.Hour, now: time.Now, logger: logger}
}

func computeRequestHash(r *http.Request, bodyBytes []byte, owner string) string {
	h := sha256.New()
	h.Write([]byte(r.Method + ":" + r.URL.Path + ":" + owner + ":"))
	h.Write(bodyBytes)
	return hex.EncodeToString(h.Sum(nil))
}

// CaptureResponseWriter wraps http.ResponseWriter to capture status and body.
type CaptureResponseWriter struct {
	w           http.ResponseWriter
	statusCode  int
	buf         bytes.Buffer
	wroteHeader bool
}

func NewCaptureResponseWriter(w http.ResponseWriter) *CaptureResponseWriter {
	return &CaptureResponseWriter{w: w, statusCode: http.StatusOK}
}

func (c *CaptureResponseWriter) Header() http.Header {
	return c.w.Header()
}

func (c *CaptureResponseWriter) WriteHeader(statusCode int) {
	if !c.wroteHeader {
		c.statusCode = statusCode
		c.w.WriteHeader(statusCode)
		c.wroteHeader = true
	}
}

func (c *CaptureResponseWriter) Write(b []byte) (int, error) {
	c.buf.Write(b)
	return c.w.Write(b)
}

func (c *CaptureResponseWriter) Status() int {
	return c.statusCode
}

func (c *CaptureResponseWriter) BodyBytes() []byte {
	return c.buf.Bytes()
}

func owner(r *http.Request) string {
	if id := utils.GetUserIDFromRequest(r); id != "" {
		return id
	}
	return utils.GetSessionIDFromRequest(r)
}

// Wrap guards next with the Idempotency-Key protocol:
//   - no header, or no store: pass-through
//   - first use of a key: run next, store status and body if final
//   - repeat with the same request: replay the stored response
//   - repeat with a different request: 409
//   - repeat while the first is still running, or after a non-final
//     response: run next again; the handlers behind this are idempotent on
//     their own
func (i *Idempotency) Wrap(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		key := r.Header.Get(IdempotencyHeader)
		if key == "" || i.store == nil {
			next(w, r, ps)
			return
		}

		bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		who := owner(r)
		reqHash := computeRequestHash(r, bodyBytes, who)
		now := i.now()
		rec := models.IdempotencyRecord{
			Key:         key,
			Method:      r.Method,
			Path:        r.URL.Path,
			Owner:       who,
			RequestHash: reqHash,
			CreatedAt:   now,
			ExpiresAt:   now.Add(i.ttl),
		}

		ctx := r.Context()
		err = i.store.Insert(ctx, rec)
		if err == nil {
			i.record(w, r, ps, next, key)
			return
		}

		if !errors.Is(err, errDuplicateKey) {
			i.logger.Error("idempotency insert failed", zap.String("key", key), zap.Error(err))
			utils.RespondWithError(w, http.StatusInternalServerError, "idempotency lookup error")
			return
		}

		existing, err := i.store.Find(ctx, key)
		if err != nil {
			i.logger.Error("idempotency lookup failed", zap.String("key", key), zap.Error(err))
			utils.RespondWithError(w, http.StatusInternalServerError, "idempotency lookup error")
			return
		}

		if existing.RequestHash != reqHash {
			utils.RespondWithError(w, http.StatusConflict, "idempotency-key conflict")
			return
		}

		if existing.Response != nil {
			utils.RespondWithJSON(w, storedStatus(existing.Response["status"]), existing.Response["body"])
			return
		}

		i.record(w, r, ps, next, key)
	}
}

// record runs next and stores its response under key if the outcome is final.
func (i *Idempotency) record(w http.ResponseWriter, r *http.Request, ps httprouter.Params, next httprouter.Handle, key string) {
	crw := NewCaptureResponseWriter(w)
	next(crw, r, ps)

	// a retry of a transient failure must run again
	if !finalStatus(crw.Status()) {
		i.logger.Debug("idempotent response not stored", zap.String("key", key), zap.Int("status", crw.Status()))
		return
	}

	var parsed interface{}
	if err := json.Unmarshal(crw.BodyBytes(), &parsed); err != nil {
		parsed = string(crw.BodyBytes())
	}
	response := map[string]interface{}{
		"status": crw.Status(),
		"body":   parsed,
	}
	if err := i.store.SaveResponse(context.WithoutCancel(r.Context()), key, response); err != nil {
		i.logger.Warn("failed to store idempotent response", zap.String("key", key), zap.Error(err))
	}
}

// finalStatus reports whether a response settles the request for good.
func finalStatus(code int) bool {
	switch {
	case code >= 500:
		return false
	case code == http.StatusConflict, code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return false
	}
	return true
}

// storedStatus reads a status code back whatever numeric type the store decoded it as.
func storedStatus(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return http.StatusOK
}
