package mp4_test

import (
	"os"
	"testing"
	"time"

	mp4 "github.com/tetsuo/mp4edit"
	"github.com/tetsuo/mp4edit/internal/fixture"
)

func loadTestFile(b *testing.B) []byte {
	b.Helper()
	data, err := os.ReadFile("testdata/sample.mp4")
	if err != nil {
		b.Skipf("test file not available: %v", err)
	}
	return data
}

func BenchmarkReaderParse(b *testing.B) {
	data := loadTestFile(b)

	b.SetBytes(int64(len(data)))

	for b.Loop() {
		r := mp4.NewReader(data)
		walkBench(&r)
	}
}

func walkBench(r *mp4.Reader) {
	for r.Next() {
		switch r.Type() {
		case mp4.TypeTkhd:
			_, _ = r.ReadTkhd()
		case mp4.TypeElst:
			_, _ = r.ReadElst()
		}
		if mp4.IsContainerBox(r.Type()) && r.Enter() {
			walkBench(r)
			r.Exit()
		}
	}
}

func BenchmarkFindEditLists(b *testing.B) {
	buf := fixture.Build(fixture.VideoAudio())

	for b.Loop() {
		if len(mp4.FindEditLists(buf)) != 2 {
			b.Fatal("edit lists not found")
		}
	}
}

func BenchmarkTrimEditLists(b *testing.B) {
	buf := fixture.Build(fixture.VideoAudio())

	for b.Loop() {
		if _, err := mp4.TrimEditLists(buf, 5*time.Second, 10*time.Second); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRotateVideo(b *testing.B) {
	buf := fixture.Build(fixture.VideoAudio())

	for b.Loop() {
		if _, err := mp4.RotateVideo(buf, mp4.Rotate90CW); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFixtureBuild(b *testing.B) {
	m := fixture.VideoAudio()

	for b.Loop() {
		_ = fixture.Build(m)
	}
}
