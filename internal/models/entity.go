package models

// Entity kinds produced by the generator.
const (
	KindUser    = "user"
	KindPost    = "post"
	KindComment = "comment"
)

// Entity is a generated record: something the gateway can persist and the
// streaming layer can describe to a client.
type Entity interface {
	Kind() string
	EntityID() string
	SetBatch(batchID string)
	// Payload is the client-facing attribute set emitted on progress events.
	Payload() map[string]any
}

var (
	_ Entity = (*User)(nil)
	_ Entity = (*Post)(nil)
	_ Entity = (*Comment)(nil)
)

func (u *User) Kind() string    { return KindUser }
func (p *Post) Kind() string    { return KindPost }
func (c *Comment) Kind() string { return KindComment }

func (u *User) EntityID() string    { return u.ID }
func (p *Post) EntityID() string    { return p.ID }
func (c *Comment) EntityID() string { return c.ID }

func (u *User) SetBatch(batchID string)    { u.BatchID = &batchID }
func (p *Post) SetBatch(batchID string)    { p.BatchID = &batchID }
func (c *Comment) SetBatch(batchID string) { c.BatchID = &batchID }

// Payload includes the generated plaintext password so callers can log in
// as the synthetic user.
func (u *User) Payload() map[string]any {
	return map[string]any{
		"id":       u.ID,
		"email":    u.Email,
		"password": u.Password,
		"batch_id": deref(u.BatchID),
	}
}

func (p *Post) Payload() map[string]any {
	return map[string]any{
		"id":           p.ID,
		"title":        p.Title,
		"content":      p.Content,
		"is_published": p.IsPublished,
		"user_id":      p.UserID,
		"batch_id":     deref(p.BatchID),
		"created_at":   p.CreatedAt,
	}
}

func (c *Comment) Payload() map[string]any {
	return map[string]any{
		"id":         c.ID,
		"content":    c.Content,
		"post_id":    c.PostID,
		"user_id":    c.UserID,
		"batch_id":   deref(c.BatchID),
		"created_at": c.CreatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
