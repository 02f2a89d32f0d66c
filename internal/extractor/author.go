package extractor

import (
	"xknowledge/pkg/jsonnode"
	"xknowledge/pkg/treesearch"
)

// AuthorSearchDepth bounds the last-resort search for a screen_name.
const AuthorSearchDepth = 8

// mediaKeys never hold author data.
var mediaKeys = []string{"entities", "extended_entities"}

type author struct {
	name   string
	handle string
	avatar string
}

// authorStrategy reads an author from a user result object.
type authorStrategy func(user any) (author, bool)

// authorStrategies are tried in order against each candidate's user result.
var authorStrategies = []struct {
	name    string
	resolve authorStrategy
}{
	{"legacy", legacyUser},
	{"flat", flatUser},
	{"core", coreUser},
}

// legacyUser reads user.legacy (older API shape).
func legacyUser(user any) (author, bool) {
	return userFields(jsonnode.Field(user, "legacy"))
}

// flatUser reads the user result itself.
func flatUser(user any) (author, bool) {
	return userFields(user)
}

// coreUser reads user.core, with the avatar split out under user.avatar.
func coreUser(user any) (author, bool) {
	core := jsonnode.Field(user, "core")
	handle := scalarString(jsonnode.Field(core, "screen_name"))
	if handle == "" {
		return author{}, false
	}
	avatar := scalarString(jsonnode.Lookup(user, "avatar", "image_url"))
	if avatar == "" {
		avatar = scalarString(jsonnode.Lookup(user, "legacy", "profile_image_url_https"))
	}
	return author{
		name:   scalarString(jsonnode.Field(core, "name")),
		handle: handle,
		avatar: avatar,
	}, true
}

func userFields(obj any) (author, bool) {
	handle := scalarString(jsonnode.Field(obj, "screen_name"))
	if handle == "" {
		return author{}, false
	}
	return author{
		name:   scalarString(jsonnode.Field(obj, "name")),
		handle: handle,
		avatar: scalarString(jsonnode.Field(obj, "profile_image_url_https")),
	}, true
}

// userResult picks the user object a candidate container points at.
func userResult(candidate any) any {
	return firstTruthy(
		jsonnode.Lookup(candidate, "core", "user_results", "result"),
		jsonnode.Lookup(candidate, "author", "result"),
		jsonnode.Lookup(candidate, "user_results", "result"),
	)
}

func (n tweetNode) authorCandidates() []any {
	return []any{
		n.tweet,
		n.result,
		n.input,
		jsonnode.Field(n.input, "result"),
		jsonnode.Field(n.result, "tweet"),
	}
}

// resolveAuthor tries every strategy on each candidate in priority order,
// then searches the whole matched node for a screen_name.
func (e *Extractor) resolveAuthor(n tweetNode) (author, bool) {
	for _, candidate := range n.authorCandidates() {
		user := userResult(candidate)
		if !jsonnode.IsObject(user) {
			continue
		}
		for _, s := range authorStrategies {
			if a, ok := s.resolve(user); ok {
				return a, true
			}
		}
	}

	found, ok := treesearch.Find(n.input, treesearch.Options{
		MaxDepth: e.authorDepth,
		SkipKeys: mediaKeys,
	}, func(node any) bool {
		return jsonnode.String(jsonnode.Field(node, "screen_name")) != ""
	})
	if !ok {
		return author{}, false
	}
	return userFields(found)
}
