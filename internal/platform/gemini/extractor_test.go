package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestReplyText(t *testing.T) {
	tests := []struct {
		name        string
		resp        *genai.GenerateContentResponse
		want        string
		expectedErr error
	}{
		{
			name:        "nil_response",
			resp:        nil,
			expectedErr: ErrInvalidResponse,
		},
		{
			name:        "no_candidates",
			resp:        &genai.GenerateContentResponse{},
			expectedErr: ErrInvalidResponse,
		},
		{
			name: "nil_content",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{}},
			},
			expectedErr: ErrInvalidResponse,
		},
		{
			name: "safety_blocked",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{
					{FinishReason: genai.FinishReasonSafety},
				},
			},
			expectedErr: ErrContentBlocked,
		},
		{
			name: "text_parts_concatenated",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{
					{
						Content: &genai.Content{
							Parts: []*genai.Part{
								{Text: `{"name":`},
								{Text: `"Lentil Soup"}`},
							},
						},
					},
				},
			},
			want: `{"name":"Lentil Soup"}`,
		},
		{
			name: "no_text_parts",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{
					{Content: &genai.Content{Parts: []*genai.Part{{}}}},
				},
			},
			expectedErr: ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := replyText(tt.resp)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
