package extractor

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/triiJU/linkedin-insights/internal/domain"
)

var (
	followersRe   = regexp.MustCompile(`(?i)([\d,.]+)\s+followers`)
	employeesRe   = regexp.MustCompile(`(?i)([\d,.]+)\s+employees`)
	reactionsRe   = regexp.MustCompile(`(?i)([\d,.]+)\s+reaction`)
	commentsRe    = regexp.MustCompile(`(?i)([\d,.]+)\s+comment`)
	specialtiesRe = regexp.MustCompile(`(?i)specialties`)
)

type Extractor struct {
	maxPosts     int
	maxEmployees int
	logger       *slog.Logger
}

func New(maxPosts, maxEmployees int, logger *slog.Logger) *Extractor {
	return &Extractor{
		maxPosts:     maxPosts,
		maxEmployees: maxEmployees,
		logger:       logger.With("component", "extractor"),
	}
}

// Extract parses the fetched markup into structured page data. The
// page name is the only required field; everything else degrades to
// nil/empty when the markup doesn't carry it.
func (e *Extractor) Extract(pageID string, markup *domain.Markup) (*domain.PageData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup.Overview))
	if err != nil {
		return nil, fmt.Errorf("parse overview markup: %w", err)
	}

	name := e.extractName(doc)
	if name == "" {
		return nil, fmt.Errorf("%w: page name", domain.ErrMissingRequiredField)
	}

	data := &domain.PageData{
		Name:              name,
		ProfilePictureURL: attrOrNil(doc.Find("img.top-card-layout__entity-image").First(), "src"),
		Description:       textOrNil(doc.Find("p.break-words").First()),
		Website:           e.extractWebsite(doc),
		Industry:          e.extractIndustry(doc),
		Location:          textOrNil(doc.Find("div[class*='location']").First()),
		Specialties:       extractSpecialties(doc),
	}

	docText := doc.Text()
	if followers, ok := extractCount(followersRe, docText); ok {
		data.FollowerCount = &followers
	}
	if headCount, ok := extractCount(employeesRe, docText); ok {
		data.HeadCount = &headCount
	}

	data.Posts = e.extractPosts(pageID, markup.Posts)
	data.Employees = e.extractEmployees(pageID, markup.People)

	return data, nil
}

func (e *Extractor) extractName(doc *goquery.Document) string {
	if name := strings.TrimSpace(doc.Find("h1.top-card-layout__title").First().Text()); name != "" {
		return name
	}
	if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		return strings.TrimSpace(og)
	}
	return ""
}

func (e *Extractor) extractWebsite(doc *goquery.Document) *string {
	var website *string
	doc.Find("a[href^='http']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok || strings.Contains(href, "linkedin.com") {
			return true
		}
		website = &href
		return false
	})
	return website
}

func (e *Extractor) extractIndustry(doc *goquery.Document) *string {
	var industry *string
	doc.Find("dt,div,h2").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(sel.Text()), "industry") {
			return true
		}
		if value := strings.TrimSpace(sel.Next().Text()); value != "" {
			industry = &value
			return false
		}
		return true
	})
	return industry
}

func (e *Extractor) extractPosts(pageID, markup string) []domain.Post {
	if markup == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		e.logger.Warn("failed to parse posts markup", "page_id", pageID, "error", err)
		return nil
	}

	var posts []domain.Post
	doc.Find("div[class*='feed-shared-update']").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= e.maxPosts {
			return false
		}

		content := strings.TrimSpace(sel.Find("div[class*='feed-shared-text']").First().Text())
		if content == "" {
			content = "Post content unavailable"
		}

		post := domain.Post{
			PostID:  sel.AttrOr("data-urn", fmt.Sprintf("%s-post-%d", pageID, i)),
			PageID:  pageID,
			Content: content,
			PostURL: sel.Find("a[href*='/posts/']").First().AttrOr("href", ""),
		}

		elemText := sel.Text()
		if likes, ok := extractCount(reactionsRe, elemText); ok {
			post.Likes = int(likes)
		}
		if comments, ok := extractCount(commentsRe, elemText); ok {
			post.CommentsCount = int(comments)
		}

		posts = append(posts, post)
		return true
	})

	return posts
}

func (e *Extractor) extractEmployees(pageID, markup string) []domain.Employee {
	if markup == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		e.logger.Warn("failed to parse people markup", "page_id", pageID, "error", err)
		return nil
	}

	var employees []domain.Employee
	doc.Find("div[class*='org-people']").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= e.maxEmployees {
			return false
		}

		name := strings.TrimSpace(sel.Find("div[class*='name']").First().Text())
		if name == "" {
			name = "Unknown Employee"
		}

		emp := domain.Employee{
			EmployeeID:        fmt.Sprintf("%s-employee-%d", pageID, i),
			PageID:            pageID,
			Name:              name,
			Title:             textOrNil(sel.Find("div[class*='position']").First()),
			Headline:          textOrNil(sel.Find("div[class*='headline']").First()),
			ProfilePictureURL: attrOrNil(sel.Find("img").First(), "src"),
		}

		if href, ok := sel.Find("a[href*='/in/']").First().Attr("href"); ok {
			emp.ProfileURL = absoluteProfileURL(href)
			if slug := profileSlug(href); slug != "" {
				emp.EmployeeID = slug
			}
		}

		employees = append(employees, emp)
		return true
	})

	return employees
}

func extractSpecialties(doc *goquery.Document) []string {
	var specialties []string
	doc.Find("dt,div,h2").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !specialtiesRe.MatchString(strings.TrimSpace(sel.Text())) {
			return true
		}
		raw := strings.TrimSpace(sel.Next().Text())
		if raw == "" {
			return true
		}
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				specialties = append(specialties, part)
			}
		}
		return false
	})
	return specialties
}

// extractCount pulls the first numeric group out of text like
// "31,000 followers".
func extractCount(re *regexp.Regexp, text string) (int64, bool) {
	match := re.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	cleaned := strings.NewReplacer(",", "", ".", "").Replace(match[1])
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func absoluteProfileURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return "https://www.linkedin.com" + href
}

func profileSlug(href string) string {
	idx := strings.Index(href, "/in/")
	if idx < 0 {
		return ""
	}
	slug := href[idx+len("/in/"):]
	return strings.Trim(strings.SplitN(slug, "?", 2)[0], "/")
}

func textOrNil(sel *goquery.Selection) *string {
	text := strings.TrimSpace(sel.Text())
	if text == "" {
		return nil
	}
	return &text
}

func attrOrNil(sel *goquery.Selection, attr string) *string {
	val, ok := sel.Attr(attr)
	if !ok || val == "" {
		return nil
	}
	return &val
}
