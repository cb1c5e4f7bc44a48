package synthetic

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/threadfit/backend/internal/models"
)

const (
	passwordLength = 10
	maxTitleLength = 200

	// zeroSeed stands in for seed 0, which gofakeit treats as "pick a random seed".
	zeroSeed uint64 = 0x9e3779b97f4a7c15
)

// Faker builds attribute sets for synthetic entities.
//
// A Faker is safe for concurrent use, but its sequence is shared: reseeding
// from one run changes what every other run using the same Faker sees next.
// Callers that need isolated, reproducible output should use their own
// instance (see Options.IsolateSeededRuns).
type Faker struct {
	mu sync.Mutex
	gf *gofakeit.Faker
}

// NewFaker returns a Faker seeded with seed. A nil seed picks a random one.
func NewFaker(seed *int64) *Faker {
	f := &Faker{}
	if seed == nil {
		f.gf = gofakeit.New(0)
	} else {
		f.gf = gofakeit.New(seedValue(*seed))
	}
	return f
}

// Seed resets the generator so the following output is reproducible.
func (f *Faker) Seed(seed int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gf = gofakeit.New(seedValue(seed))
}

func seedValue(seed int64) uint64 {
	if seed == 0 {
		return zeroSeed
	}
	return uint64(seed)
}

// User returns an unsaved user with a plaintext password.
func (f *Faker) User() *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	return &models.User{
		Email:    strings.ToLower(f.gf.Email()),
		Password: f.gf.Password(true, true, true, false, false, passwordLength),
		IsActive: true,
	}
}

// Post returns an unsaved, published post owned by userID.
func (f *Faker) Post(userID string) *models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()

	title := f.sentence(f.gf.IntRange(3, 8))
	if len(title) > maxTitleLength {
		title = truncate(title, maxTitleLength)
	}

	sentences := make([]string, f.gf.IntRange(3, 5))
	for i := range sentences {
		sentences[i] = f.sentence(f.gf.IntRange(6, 14))
	}

	return &models.Post{
		UserID:      userID,
		Title:       title,
		Content:     strings.Join(sentences, " "),
		IsPublished: true,
	}
}

// Comment returns an unsaved comment by userID on postID.
func (f *Faker) Comment(postID, userID string) *models.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()

	return &models.Comment{
		PostID:  postID,
		UserID:  userID,
		Content: f.sentence(f.gf.IntRange(5, 15)),
	}
}

// sentence must be called with mu held.
func (f *Faker) sentence(words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = f.gf.Word()
	}

	s := strings.Join(parts, " ")
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:] + "."
}

func truncate(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
