package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListOrderCoversEveryAcceptedSortToken(t *testing.T) {
	fallback := listOrder("")
	expect := map[string]string{
		"price:asc":  "p.price ASC",
		"price:desc": "p.price DESC",
		"title:asc":  "p.title ASC",
		"title:desc": "p.title DESC",
		"newest":     "p.created_at DESC",
	}
	for token, column := range expect {
		require.Equal(t, token, normalizeSort(token), "token must survive normalisation")
		order := listOrder(normalizeSort(token))
		require.True(t, strings.HasPrefix(order, column), "sort %q should order by %s, got %q", token, column, order)
		require.NotEqual(t, fallback, order, "sort %q should not fall back to the default ordering", token)
	}
}

func TestListOrderDefaultsToBestSellers(t *testing.T) {
	require.Equal(t, "p.sold_count DESC, p.created_at DESC, p.id DESC", listOrder(""))
	require.Equal(t, listOrder(""), listOrder(normalizeSort("bogus")))
}
