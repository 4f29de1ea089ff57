package validator

import (
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beanbocchi/tubeup/internal/model"
)

type request struct {
	FileName    string      `json:"fileName" validate:"required"`
	FileSize    int64       `json:"fileSize" validate:"gt=0"`
	ContentType null.String `json:"contentType" validate:"omitnil,min=3"`
	ObjectKey   string      `json:"objectKey" validate:"omitempty,objectkey"`
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := Validate(&request{FileName: "clip.mp4", FileSize: 10, ObjectKey: "videos/video/clip.mp4"})
		assert.NoError(t, err)
	})

	t.Run("reports wire field names", func(t *testing.T) {
		err := Validate(&request{FileSize: 0})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrValidation)
		assert.Contains(t, err.Error(), "fileName")
		assert.Contains(t, err.Error(), "fileSize")
	})

	t.Run("null string is optional but checked when set", func(t *testing.T) {
		assert.NoError(t, Validate(&request{FileName: "a", FileSize: 1}))
		assert.Error(t, Validate(&request{FileName: "a", FileSize: 1, ContentType: null.StringFrom("x")}))
	})

	t.Run("object keys", func(t *testing.T) {
		for _, key := range []string{"../etc/passwd", "/abs/key", "a/./b", `a\b`} {
			err := Validate(&request{FileName: "a", FileSize: 1, ObjectKey: key})
			assert.Error(t, err, key)
		}
	})
}
