package media

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cases := map[string]Kind{
		"clip.mp4":   KindVideo,
		"CLIP.MOV":   KindVideo,
		"a.b.avi":    KindVideo,
		"movie.mkv":  KindVideo,
		"photo.jpg":  KindImage,
		"photo.JPEG": KindImage,
		"shot.png":   KindImage,
	}
	for name, want := range cases {
		got, err := KindOf(name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}

	_, err := KindOf("notes.txt")
	require.True(t, errors.Is(err, ErrUnsupportedType))

	_, err = KindOf("noext")
	require.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestImageSink_CommitAndDiscard(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	out := filepath.Join(dir, "processed_a.png")
	sink, err := NewImageSink(out)
	require.NoError(t, err)
	require.NoError(t, sink.Write(img))

	_, err = os.Stat(out)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, sink.Commit())
	loaded, err := LoadImage(out)
	require.NoError(t, err)
	require.Equal(t, img.Bounds(), loaded.Bounds())

	discarded := filepath.Join(dir, "processed_b.jpg")
	sink, err = NewImageSink(discarded)
	require.NoError(t, err)
	require.NoError(t, sink.Write(img))
	require.NoError(t, sink.Discard())

	_, err = os.Stat(PartialPath(discarded))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(discarded)
	require.True(t, os.IsNotExist(err))
}

func TestImageSink_CommitWithoutWrite(t *testing.T) {
	sink, err := NewImageSink(filepath.Join(t.TempDir(), "x.jpg"))
	require.NoError(t, err)
	require.Error(t, sink.Commit())
}

func TestCommitPartial_RemovesPartialOnFailure(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "out.mp4")
	// каталог на месте итогового файла не даёт выполнить rename
	require.NoError(t, os.MkdirAll(filepath.Join(final, "busy"), 0755))
	require.NoError(t, os.WriteFile(PartialPath(final), []byte("frames"), 0644))

	require.Error(t, CommitPartial(final))
	require.NoFileExists(t, PartialPath(final))
}

func TestRGBRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(2, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	buf := toRGB(img, 3, 2, nil)
	require.Len(t, buf, 18)

	back := fromRGB(buf, 3, 2)
	require.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, back.RGBAAt(2, 1))
}

func TestParseRate(t *testing.T) {
	require.InDelta(t, 29.97, parseRate("30000/1001"), 0.01)
	require.Equal(t, 25.0, parseRate("25"))
	require.Equal(t, 0.0, parseRate("0/0"))
	require.Equal(t, 0.0, parseRate(""))
}

func TestEncoderArgs_EvenFrameSize(t *testing.T) {
	args := encoderArgs("libx264")
	require.Equal(t, "libx264", args["vcodec"])
	require.Equal(t, "yuv420p", args["pix_fmt"])
	require.Equal(t, "scale=trunc(iw/2)*2:trunc(ih/2)*2", args["vf"])
}
