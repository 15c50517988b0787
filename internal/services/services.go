// Package services holds one thin typed wrapper per backend resource area.
// Each function shapes a request, sends it through the transport adapter,
// and unwraps the response envelope. Services keep no state and apply no
// caching or retries; the only side effects live in the auth service, which
// writes the local credential store on login, register, and logout.
package services

import (
	"net/url"
	"strconv"

	"stoop/internal/localstore"
	"stoop/internal/transport"
)

// Services bundles every resource-area service over one transport client.
type Services struct {
	Auth    *Auth
	Content *Content
	Follow  *Follow
	Gossip  *Gossip
	Search  *Search
	Social  *Social
	Notify  *Notify
	Geo     *Geo
}

// New wires all services over the given transport and credential store.
func New(api *transport.Client, store *localstore.Store) *Services {
	return &Services{
		Auth:    &Auth{api: api, store: store},
		Content: &Content{api: api},
		Follow:  &Follow{api: api},
		Gossip:  &Gossip{api: api},
		Search:  &Search{api: api},
		Social:  &Social{api: api},
		Notify:  &Notify{api: api},
		Geo:     &Geo{api: api},
	}
}

// pageQuery builds the page/limit query values shared by list endpoints.
func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return q
}
