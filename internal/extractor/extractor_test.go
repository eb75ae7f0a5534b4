package extractor

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triiJU/linkedin-insights/internal/domain"
)

const overviewHTML = `<!DOCTYPE html>
<html>
<head>
	<meta property="og:title" content="Acme Corp | LinkedIn">
</head>
<body>
	<h1 class="top-card-layout__title">Acme Corp</h1>
	<img class="top-card-layout__entity-image" src="https://media.example/acme.png">
	<p class="break-words">We make everything.</p>
	<a href="https://www.linkedin.com/company/acme/">Acme on LinkedIn</a>
	<a href="https://acme.example">Website</a>
	<div class="top-card__location">Palo Alto, CA</div>
	<dl>
		<dt>Industry</dt>
		<dd>Software Development</dd>
		<dt>Specialties</dt>
		<dd>Rockets, Anvils, Dynamite</dd>
	</dl>
	<span>31,000 followers</span>
	<span>250 employees</span>
</body>
</html>`

const postsHTML = `<html><body>
	<div class="feed-shared-update-v2" data-urn="urn:li:activity:100">
		<div class="feed-shared-text">Launching our new anvil line.</div>
		<a href="https://www.linkedin.com/posts/acme-100">link</a>
		<span>42 reactions</span>
		<span>7 comments</span>
	</div>
	<div class="feed-shared-update-v2">
		<div class="feed-shared-text"></div>
	</div>
</body></html>`

const peopleHTML = `<html><body>
	<div class="org-people-profile-card">
		<div class="profile-card__name">Ada Lovelace</div>
		<div class="profile-card__position">Principal Engineer</div>
		<a href="/in/ada-lovelace?trk=people">profile</a>
		<img src="https://media.example/ada.png">
	</div>
	<div class="org-people-profile-card">
		<div class="profile-card__name"></div>
	</div>
</body></html>`

func newTestExtractor(maxPosts, maxEmployees int) *Extractor {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(maxPosts, maxEmployees, logger)
}

func TestExtract_FullPage(t *testing.T) {
	e := newTestExtractor(20, 50)

	data, err := e.Extract("acme", &domain.Markup{
		Overview: overviewHTML,
		Posts:    postsHTML,
		People:   peopleHTML,
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", data.Name)
	require.NotNil(t, data.Description)
	assert.Equal(t, "We make everything.", *data.Description)
	require.NotNil(t, data.Website)
	assert.Equal(t, "https://acme.example", *data.Website)
	require.NotNil(t, data.Industry)
	assert.Equal(t, "Software Development", *data.Industry)
	require.NotNil(t, data.Location)
	assert.Equal(t, "Palo Alto, CA", *data.Location)
	require.NotNil(t, data.FollowerCount)
	assert.Equal(t, int64(31000), *data.FollowerCount)
	require.NotNil(t, data.HeadCount)
	assert.Equal(t, int64(250), *data.HeadCount)
	assert.Equal(t, []string{"Rockets", "Anvils", "Dynamite"}, data.Specialties)
	require.NotNil(t, data.ProfilePictureURL)
	assert.Equal(t, "https://media.example/acme.png", *data.ProfilePictureURL)
}

func TestExtract_MissingName(t *testing.T) {
	e := newTestExtractor(20, 50)

	_, err := e.Extract("acme", &domain.Markup{Overview: "<html><body><p>nothing here</p></body></html>"})
	assert.ErrorIs(t, err, domain.ErrMissingRequiredField)
}

func TestExtract_NameFromOpenGraphFallback(t *testing.T) {
	e := newTestExtractor(20, 50)

	data, err := e.Extract("acme", &domain.Markup{
		Overview: `<html><head><meta property="og:title" content="Acme Corp | LinkedIn"></head><body></body></html>`,
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp | LinkedIn", data.Name)
}

func TestExtract_Posts(t *testing.T) {
	e := newTestExtractor(20, 50)

	data, err := e.Extract("acme", &domain.Markup{Overview: overviewHTML, Posts: postsHTML})
	require.NoError(t, err)
	require.Len(t, data.Posts, 2)

	first := data.Posts[0]
	assert.Equal(t, "urn:li:activity:100", first.PostID)
	assert.Equal(t, "acme", first.PageID)
	assert.Equal(t, "Launching our new anvil line.", first.Content)
	assert.Equal(t, "https://www.linkedin.com/posts/acme-100", first.PostURL)
	assert.Equal(t, 42, first.Likes)
	assert.Equal(t, 7, first.CommentsCount)

	second := data.Posts[1]
	assert.Equal(t, "acme-post-1", second.PostID)
	assert.Equal(t, "Post content unavailable", second.Content)
}

func TestExtract_PostsRespectLimit(t *testing.T) {
	e := newTestExtractor(1, 50)

	data, err := e.Extract("acme", &domain.Markup{Overview: overviewHTML, Posts: postsHTML})
	require.NoError(t, err)
	assert.Len(t, data.Posts, 1)
}

func TestExtract_Employees(t *testing.T) {
	e := newTestExtractor(20, 50)

	data, err := e.Extract("acme", &domain.Markup{Overview: overviewHTML, People: peopleHTML})
	require.NoError(t, err)
	require.Len(t, data.Employees, 2)

	ada := data.Employees[0]
	assert.Equal(t, "ada-lovelace", ada.EmployeeID)
	assert.Equal(t, "Ada Lovelace", ada.Name)
	require.NotNil(t, ada.Title)
	assert.Equal(t, "Principal Engineer", *ada.Title)
	assert.Equal(t, "https://www.linkedin.com/in/ada-lovelace?trk=people", ada.ProfileURL)
	require.NotNil(t, ada.ProfilePictureURL)
	assert.Equal(t, "https://media.example/ada.png", *ada.ProfilePictureURL)

	assert.Equal(t, "Unknown Employee", data.Employees[1].Name)
	assert.Equal(t, "acme-employee-1", data.Employees[1].EmployeeID)
}

func TestExtract_EmptySections(t *testing.T) {
	e := newTestExtractor(20, 50)

	data, err := e.Extract("acme", &domain.Markup{Overview: overviewHTML})
	require.NoError(t, err)
	assert.Empty(t, data.Posts)
	assert.Empty(t, data.Employees)
}

func TestExtractCount(t *testing.T) {
	cases := []struct {
		text string
		want int64
		ok   bool
	}{
		{"31,000 followers", 31000, true},
		{"1.2 followers", 12, true},
		{"42 Followers on page", 42, true},
		{"no numbers here", 0, false},
	}
	for _, tc := range cases {
		got, ok := extractCount(followersRe, tc.text)
		assert.Equal(t, tc.ok, ok, tc.text)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.text)
		}
	}
}

func TestProfileSlug(t *testing.T) {
	assert.Equal(t, "ada-lovelace", profileSlug("/in/ada-lovelace?trk=people"))
	assert.Equal(t, "ada", profileSlug("https://www.linkedin.com/in/ada/"))
	assert.Equal(t, "", profileSlug("/company/acme/"))
}
