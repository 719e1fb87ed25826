package source

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const inthisworkListHTML = `
<main>
  <article>
    <a href="https://inthiswork.com/archives/341120">토스｜데이터 분석가 (신입)</a>
    <a href="https://inthiswork.com/archives/341120#comments">댓글 3</a>
  </article>
  <article>
    <a href="https://inthiswork.com/archives/341200">쿠팡 | 백엔드 엔지니어 (3년 이상)</a>
  </article>
  <article>
    <a href="https://inthiswork.com/archives/341300/comment-page-1">라인｜PM 인턴</a>
  </article>
  <article>
    <a href="https://inthiswork.com/archives/341400">공지사항 제목에 구분자 없음</a>
  </article>
  <a href="https://inthiswork.com/about">소개</a>
</main>`

func TestInthisworkParseListPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(inthisworkListHTML))
	require.NoError(t, err)

	a := &inthisworkAdapter{id: "itw", baseURL: "https://inthiswork.com"}
	got := a.parseListPage(doc)
	require.Len(t, got, 3, "comment anchors deduped, separator-less post dropped")

	require.Equal(t, "341120", got[0].ExternalID)
	require.Equal(t, "토스", got[0].Company)
	require.Equal(t, "데이터 분석가 (신입)", got[0].Title)
	require.Equal(t, "https://inthiswork.com/archives/341120", got[0].URL)
	require.Equal(t, "신입", got[0].Experience)

	require.Equal(t, "쿠팡", got[1].Company, "ASCII bar separator works too")
	require.Equal(t, "3년 이상", got[1].Experience)

	require.Equal(t, "341300", got[2].ExternalID, "comment-page suffix stripped")
	require.Equal(t, "인턴", got[2].Experience)
}

func TestCanonicalArchiveURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://x/archives/1#comments", "https://x/archives/1"},
		{"https://x/archives/1/comment-page-2", "https://x/archives/1"},
		{"  https://x/archives/1  ", "https://x/archives/1"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, canonicalArchiveURL(tt.in))
	}
}

func TestSplitPostTitle(t *testing.T) {
	company, title, ok := splitPostTitle("토스｜데이터 분석가")
	require.True(t, ok)
	require.Equal(t, "토스", company)
	require.Equal(t, "데이터 분석가", title)

	_, _, ok = splitPostTitle("구분자 없는 제목")
	require.False(t, ok)

	_, _, ok = splitPostTitle("｜회사 이름이 비었다")
	require.False(t, ok)
}

func TestExperienceFromTitle(t *testing.T) {
	tests := []struct{ in, want string }{
		{"데이터 분석가 (신입)", "신입"},
		{"PM 인턴 모집", "인턴"},
		{"백엔드 (경력무관)", "경력무관"},
		{"엔지니어 5년 이상", "5년 이상"},
		{"그냥 채용", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, experienceFromTitle(tt.in))
	}
}
