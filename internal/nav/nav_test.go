package nav

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func hrefs(items []RenderedItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Href)
	}
	return out
}

func TestBuildFiltersByViewer(t *testing.T) {
	require.Equal(t, []string{"/shop", "/cart"}, hrefs(Build("/", Viewer{})))
	require.Equal(t, []string{"/shop", "/cart", "/profile"}, hrefs(Build("/", Viewer{SignedIn: true})))
	require.Equal(t, []string{"/shop", "/cart", "/profile", "/admin"}, hrefs(Build("/", Viewer{SignedIn: true, Admin: true})))
}

func TestBuildMarksActiveSection(t *testing.T) {
	items := Build("/shop/silver-ring", Viewer{})
	require.True(t, items[0].Active)
	require.False(t, items[1].Active)
}

func TestBreadcrumbsForProductPage(t *testing.T) {
	crumbs := Breadcrumbs("/shop/silver-ring")
	require.Len(t, crumbs, 3)
	require.Equal(t, Crumb{Href: "/", Label: "Home"}, crumbs[0])
	require.Equal(t, Crumb{Href: "/shop", Label: "Shop"}, crumbs[1])
	require.Equal(t, Crumb{Href: "/shop/silver-ring", Label: "Silver ring", Active: true}, crumbs[2])
}

func TestBreadcrumbsHomeOnly(t *testing.T) {
	crumbs := Breadcrumbs("/")
	require.Len(t, crumbs, 1)
	require.True(t, crumbs[0].Active)
}
