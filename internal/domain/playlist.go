package domain

import "time"

// Playlist is a backend-owned collection of saved audio, cached locally
// with a TTL. The backend is the source of truth; local copies are
// advisory and invalidated eagerly on any mutation.
type Playlist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AudioIDs  []string  `json:"audio_ids"`
	Public    bool      `json:"public"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contains reports whether the playlist references the given audio id.
func (p *Playlist) Contains(audioID string) bool {
	for _, id := range p.AudioIDs {
		if id == audioID {
			return true
		}
	}
	return false
}
