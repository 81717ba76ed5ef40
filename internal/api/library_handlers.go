package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/narrifyapp/narrify-playback/internal/domain"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSavedUnits",
		Method:      http.MethodGet,
		Path:        "/v1/library/audio",
		Summary:     "List saved units",
		Description: "Returns the backend library, served from the local cache when fresh",
		Tags:        []string{"Library"},
	}, s.handleListSavedUnits)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSavedUnit",
		Method:      http.MethodDelete,
		Path:        "/v1/library/audio/{id}",
		Summary:     "Delete a saved unit",
		Tags:        []string{"Library"},
	}, s.handleDeleteSavedUnit)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPlaylists",
		Method:      http.MethodGet,
		Path:        "/v1/playlists",
		Summary:     "List playlists",
		Tags:        []string{"Library"},
	}, s.handleListPlaylists)

	huma.Register(s.api, huma.Operation{
		OperationID: "createPlaylist",
		Method:      http.MethodPost,
		Path:        "/v1/playlists",
		Summary:     "Create a playlist",
		Tags:        []string{"Library"},
	}, s.handleCreatePlaylist)

	huma.Register(s.api, huma.Operation{
		OperationID: "addToPlaylist",
		Method:      http.MethodPut,
		Path:        "/v1/playlists/{id}/audio/{audioID}",
		Summary:     "Add audio to a playlist",
		Tags:        []string{"Library"},
	}, s.handleAddToPlaylist)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFromPlaylist",
		Method:      http.MethodDelete,
		Path:        "/v1/playlists/{id}/audio/{audioID}",
		Summary:     "Remove audio from a playlist",
		Tags:        []string{"Library"},
	}, s.handleRemoveFromPlaylist)
}

type ListSavedUnitsOutput struct {
	Body struct {
		Units []domain.PlaybackUnit `json:"units"`
	}
}

type DeleteSavedUnitInput struct {
	ID string `path:"id" doc:"Saved unit id"`
}

type ListPlaylistsOutput struct {
	Body struct {
		Playlists []domain.Playlist `json:"playlists"`
	}
}

type CreatePlaylistInput struct {
	Body struct {
		Name   string `json:"name" minLength:"1" maxLength:"200" doc:"Playlist name"`
		Public bool   `json:"public,omitempty" doc:"Whether the playlist is publicly visible"`
	}
}

type CreatePlaylistOutput struct {
	Body domain.Playlist
}

type PlaylistAudioInput struct {
	ID      string `path:"id" doc:"Playlist id"`
	AudioID string `path:"audioID" doc:"Saved audio id"`
}

type EmptyOutput struct{}

func (s *Server) handleListSavedUnits(ctx context.Context, _ *struct{}) (*ListSavedUnitsOutput, error) {
	units, err := s.library.SavedUnits(ctx)
	if err != nil {
		return nil, err
	}
	if units == nil {
		units = []domain.PlaybackUnit{}
	}
	out := &ListSavedUnitsOutput{}
	out.Body.Units = units
	return out, nil
}

func (s *Server) handleDeleteSavedUnit(ctx context.Context, input *DeleteSavedUnitInput) (*EmptyOutput, error) {
	if err := s.library.DeleteUnit(ctx, input.ID); err != nil {
		return nil, err
	}
	return &EmptyOutput{}, nil
}

func (s *Server) handleListPlaylists(ctx context.Context, _ *struct{}) (*ListPlaylistsOutput, error) {
	playlists, err := s.library.Playlists(ctx)
	if err != nil {
		return nil, err
	}
	if playlists == nil {
		playlists = []domain.Playlist{}
	}
	out := &ListPlaylistsOutput{}
	out.Body.Playlists = playlists
	return out, nil
}

func (s *Server) handleCreatePlaylist(ctx context.Context, input *CreatePlaylistInput) (*CreatePlaylistOutput, error) {
	playlist, err := s.library.CreatePlaylist(ctx, input.Body.Name, input.Body.Public)
	if err != nil {
		return nil, err
	}
	return &CreatePlaylistOutput{Body: *playlist}, nil
}

func (s *Server) handleAddToPlaylist(ctx context.Context, input *PlaylistAudioInput) (*EmptyOutput, error) {
	if err := s.library.AddToPlaylist(ctx, input.ID, input.AudioID); err != nil {
		return nil, err
	}
	return &EmptyOutput{}, nil
}

func (s *Server) handleRemoveFromPlaylist(ctx context.Context, input *PlaylistAudioInput) (*EmptyOutput, error) {
	if err := s.library.RemoveFromPlaylist(ctx, input.ID, input.AudioID); err != nil {
		return nil, err
	}
	return &EmptyOutput{}, nil
}
