package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/orange-copywriter/internal/models"
	"github.com/pribylovaa/orange-copywriter/mocks"
)

func TestRecentConversations_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   models.ConversationKey
		limit int
		field string
	}{
		{"no industry", models.ConversationKey{Client: "Luxofy", Purpose: "p"}, 5, "industry"},
		{"client is spaces", models.ConversationKey{Industry: "i", Client: "  ", Purpose: "p"}, 5, "client"},
		{"no purpose", models.ConversationKey{Industry: "i", Client: "Luxofy"}, 5, "purpose"},
		{"negative limit", models.ConversationKey{Industry: "i", Client: "Luxofy", Purpose: "p"}, -1, "limit"},
		{"limit above max", models.ConversationKey{Industry: "i", Client: "Luxofy", Purpose: "p"}, 51, "limit"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			st := mocks.NewMockConversationStorage(ctrl)
			env := newServiceWithMocks(t, ctrl, st, nil)

			_, err := env.svc.RecentConversations(context.Background(), tc.key, tc.limit)
			require.ErrorIs(t, err, ErrInvalidArgument)

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			require.Equal(t, tc.field, fe.Field)
		})
	}
}

func TestRecentConversations_PassThrough(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockConversationStorage(ctrl)
	env := newServiceWithMocks(t, ctrl, st, nil)

	want := []models.Conversation{{Key: models.ConversationKey{Industry: "i", Client: "Luxofy", Purpose: "p"}}}
	st.EXPECT().
		RecentConversations(gomock.Any(), models.ConversationKey{Industry: "i", Client: "Luxofy", Purpose: "p"}, 3).
		Return(want, nil)

	got, err := env.svc.RecentConversations(context.Background(), models.ConversationKey{Industry: " i ", Client: "Luxofy", Purpose: "p"}, 3)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestRecentConversations_StorageError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := mocks.NewMockConversationStorage(ctrl)
	env := newServiceWithMocks(t, ctrl, st, nil)

	st.EXPECT().RecentConversations(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, err := env.svc.RecentConversations(context.Background(), models.ConversationKey{Industry: "i", Client: "Luxofy", Purpose: "p"}, 0)
	require.ErrorIs(t, err, ErrInternal)
}
