package gundem

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"eksi-quake-watch/internal/domain"
	"eksi-quake-watch/internal/infra/metrics"
)

// userAgent маскирует клиент под браузер: сайт отдаёт облегчённую
// разметку ботам и может отвечать 403 на пустой User-Agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ErrTopicListNotFound возвращается, если на странице нет списка заголовков.
var ErrTopicListNotFound = errors.New("ul.topic-list не найден в разметке")

// Client получает и разбирает страницу гюндема.
type Client struct {
	httpClient *http.Client
	url        string
	now        func() time.Time
}

var _ domain.GundemFetcher = (*Client)(nil)

// NewClient создаёт клиента гюндема с ограниченным таймаутом запроса.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		now:        time.Now,
	}
}

// FetchGundem запрашивает страницу и извлекает текущие заголовки.
// Ошибка сети или разметки возвращается целиком: частично разобранный
// список не отдаётся, решение об обработке принимает планировщик.
func (c *Client) FetchGundem(ctx context.Context) ([]domain.Baslik, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveNetworkRequest("gundem", "fetch", c.url, start, err)
	if err != nil {
		return nil, fmt.Errorf("запрос гюндема: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("запрос гюндема: статус %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("разбор HTML: %w", err)
	}

	return c.extract(doc)
}

// extract вытаскивает заголовки из ul.topic-list. Некорректные элементы
// списка пропускаются по одному, остальные не теряются.
func (c *Client) extract(doc *goquery.Document) ([]domain.Baslik, error) {
	topicList := doc.Find("ul.topic-list").First()
	if topicList.Length() == 0 {
		return nil, ErrTopicListNotFound
	}

	observedAt := c.now()
	var basliks []domain.Baslik
	topicList.Find("li").Each(func(_ int, li *goquery.Selection) {
		a := li.Find("a").First()
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}

		title := strings.TrimSpace(a.Text())
		entryCount := "0"
		if small := a.Find("small").First(); small.Length() > 0 {
			entryCount = strings.TrimSpace(small.Text())
			title = strings.TrimSpace(strings.Replace(title, entryCount, "", 1))
		}
		if title == "" {
			return
		}

		basliks = append(basliks, domain.Baslik{
			Title:      title,
			URL:        href,
			EntryCount: entryCount,
			Timestamp:  observedAt,
		})
	})

	return basliks, nil
}
