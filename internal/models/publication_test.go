package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResultPublicationIsVisible(t *testing.T) {
	publishDate := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		pub  *ResultPublication
		now  time.Time
		want bool
	}{
		{name: "no gate", pub: nil, now: publishDate.Add(time.Hour), want: false},
		{name: "before date unpublished", pub: &ResultPublication{PublishDate: publishDate}, now: publishDate.Add(-time.Minute), want: false},
		{name: "exactly at date", pub: &ResultPublication{PublishDate: publishDate}, now: publishDate, want: true},
		{name: "after date", pub: &ResultPublication{PublishDate: publishDate}, now: publishDate.Add(24 * time.Hour), want: true},
		{name: "explicitly published early", pub: &ResultPublication{PublishDate: publishDate, IsPublished: true}, now: publishDate.Add(-48 * time.Hour), want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.pub.IsVisible(tc.now))
		})
	}
}

func TestStudentOptsInto(t *testing.T) {
	s := Student{AdditionalSubjectIDs: []string{"music", "art"}}
	assert.True(t, s.OptsInto("art"))
	assert.False(t, s.OptsInto("physics"))
}
