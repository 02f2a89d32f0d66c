package extractor

import "xknowledge/pkg/jsonnode"

// matchTweetNode returns the node to extract when obj carries a tweet
// marker. Markers are tried most specific first and the first one wins:
//
//  1. obj.tweet_results.result           -> obj.tweet_results
//  2. obj.itemContent.tweet_results.result -> obj.itemContent.tweet_results
//  3. obj is a Tweet (or visibility wrapper) with legacy fields -> obj
func matchTweetNode(obj any) (any, bool) {
	if !jsonnode.IsObject(obj) {
		return nil, false
	}
	if tr := jsonnode.Field(obj, "tweet_results"); jsonnode.Truthy(jsonnode.Field(tr, "result")) {
		return tr, true
	}
	if tr := jsonnode.Lookup(obj, "itemContent", "tweet_results"); jsonnode.Truthy(jsonnode.Field(tr, "result")) {
		return tr, true
	}
	switch jsonnode.String(jsonnode.Field(obj, "__typename")) {
	case "Tweet", "TweetWithVisibilityResults":
		if jsonnode.Truthy(jsonnode.Field(obj, "legacy")) {
			return obj, true
		}
	}
	return nil, false
}

// tweetNode keeps every level of a matched node; author data can sit on any
// of them.
type tweetNode struct {
	input  any // the matched node
	result any // input.result, or input
	tweet  any // result.tweet, or result, unwrapped once more through .result
	legacy any
}

// unwrap peels retweet and visibility wrappers. It fails for nodes without
// legacy fields, which covers tombstones.
func unwrap(input any) (tweetNode, bool) {
	result := firstTruthy(jsonnode.Field(input, "result"), input)
	tweet := firstTruthy(jsonnode.Field(result, "tweet"), result)
	if inner := jsonnode.Field(tweet, "result"); jsonnode.Truthy(inner) {
		tweet = firstTruthy(jsonnode.Field(inner, "tweet"), inner)
	}

	if !jsonnode.Truthy(jsonnode.Field(tweet, "legacy")) && !jsonnode.Truthy(jsonnode.Field(tweet, "tweet_results")) {
		return tweetNode{}, false
	}
	legacy := firstTruthy(
		jsonnode.Field(tweet, "legacy"),
		jsonnode.Lookup(tweet, "tweet_results", "result", "legacy"),
	)
	if !jsonnode.IsObject(legacy) {
		return tweetNode{}, false
	}

	return tweetNode{input: input, result: result, tweet: tweet, legacy: legacy}, true
}

// id returns the first usable identifier: legacy.id_str, then the rest_id of
// the tweet, the result and the matched node.
func (n tweetNode) id() string {
	for _, v := range []any{
		jsonnode.Field(n.legacy, "id_str"),
		jsonnode.Field(n.tweet, "rest_id"),
		jsonnode.Field(n.result, "rest_id"),
		jsonnode.Field(n.input, "rest_id"),
	} {
		if s := scalarString(v); s != "" {
			return s
		}
	}
	return ""
}

// text prefers the long-form note over the truncated legacy text.
func (n tweetNode) text() string {
	if note := scalarString(jsonnode.Lookup(n.tweet, "note_tweet", "note_tweet_results", "result", "text")); note != "" {
		return note
	}
	return scalarString(jsonnode.Field(n.legacy, "full_text"))
}

func firstTruthy(values ...any) any {
	for _, v := range values {
		if jsonnode.Truthy(v) {
			return v
		}
	}
	return nil
}
