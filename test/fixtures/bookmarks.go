// Package fixtures holds captured GraphQL responses used by tests.
package fixtures

// BookmarkTimeline is a trimmed Bookmarks response with four tweet entries
// and a cursor:
//
//   - 1001 photo tweet, legacy user shape, both entities and extended_entities
//   - 1002 visibility-wrapped note tweet, core user shape, video and a
//     video without MP4 renditions
//   - 1003 quote tweet embedding 1004, flat user shape, animated gif
//   - 1001 again, captured as a retweet wrapper
const BookmarkTimeline = `{
  "data": {
    "bookmark_timeline_v2": {
      "timeline": {
        "instructions": [
          {
            "type": "TimelineAddEntries",
            "entries": [
              {
                "entryId": "tweet-1001",
                "sortIndex": "1830000000000000004",
                "content": {
                  "entryType": "TimelineTimelineItem",
                  "__typename": "TimelineTimelineItem",
                  "itemContent": {
                    "itemType": "TimelineTweet",
                    "__typename": "TimelineTweet",
                    "tweet_results": {
                      "result": {
                        "__typename": "Tweet",
                        "rest_id": "1001",
                        "core": {
                          "user_results": {
                            "result": {
                              "__typename": "User",
                              "rest_id": "11",
                              "legacy": {
                                "name": "Grace Hopper",
                                "screen_name": "grace",
                                "profile_image_url_https": "https://pbs.twimg.com/profile_images/11/grace_normal.jpg"
                              }
                            }
                          }
                        },
                        "legacy": {
                          "id_str": "1001",
                          "created_at": "Wed Oct 10 20:19:24 +0000 2018",
                          "full_text": "Compilers are translators https://t.co/abc",
                          "reply_count": 3,
                          "retweet_count": 5,
                          "favorite_count": 42,
                          "bookmark_count": 7,
                          "entities": {
                            "media": [
                              {"type": "photo", "media_url_https": "https://pbs.twimg.com/media/small.jpg"}
                            ]
                          },
                          "extended_entities": {
                            "media": [
                              {
                                "type": "photo",
                                "media_url_https": "https://pbs.twimg.com/media/A1.jpg",
                                "original_info": {"width": 1200, "height": 800}
                              }
                            ]
                          }
                        }
                      }
                    }
                  }
                }
              },
              {
                "entryId": "tweet-1002",
                "sortIndex": "1830000000000000003",
                "content": {
                  "entryType": "TimelineTimelineItem",
                  "itemContent": {
                    "itemType": "TimelineTweet",
                    "tweet_results": {
                      "result": {
                        "__typename": "TweetWithVisibilityResults",
                        "tweet": {
                          "rest_id": "1002",
                          "core": {
                            "user_results": {
                              "result": {
                                "__typename": "User",
                                "rest_id": "12",
                                "core": {"name": "Ada Lovelace", "screen_name": "ada"},
                                "avatar": {"image_url": "https://pbs.twimg.com/profile_images/12/ada_normal.jpg"}
                              }
                            }
                          },
                          "note_tweet": {
                            "note_tweet_results": {
                              "result": {"text": "The Analytical Engine weaves algebraic patterns just as the Jacquard loom weaves flowers and leaves."}
                            }
                          },
                          "legacy": {
                            "id_str": "1002",
                            "created_at": "Thu Oct 11 08:00:00 +0000 2018",
                            "full_text": "The Analytical Engine weaves algebraic patterns…",
                            "reply_count": 1,
                            "favorite_count": 10,
                            "extended_entities": {
                              "media": [
                                {
                                  "type": "video",
                                  "media_url_https": "https://pbs.twimg.com/ext_tw_video_thumb/1002/pu/img/poster.jpg",
                                  "original_info": {"width": 1280, "height": 720},
                                  "video_info": {
                                    "variants": [
                                      {"content_type": "video/mp4", "bitrate": 632000, "url": "https://video.twimg.com/1002/320x180.mp4"},
                                      {"content_type": "application/x-mpegURL", "url": "https://video.twimg.com/1002/pl.m3u8"},
                                      {"content_type": "video/mp4", "bitrate": 2176000, "url": "https://video.twimg.com/1002/1280x720.mp4"},
                                      {"content_type": "video/mp4", "bitrate": 2176000, "url": "https://video.twimg.com/1002/1280x720-alt.mp4"}
                                    ]
                                  }
                                },
                                {
                                  "type": "video",
                                  "media_url_https": "https://pbs.twimg.com/ext_tw_video_thumb/1002/pu/img/live.jpg",
                                  "video_info": {
                                    "variants": [
                                      {"content_type": "application/x-mpegURL", "bitrate": 5000000, "url": "https://video.twimg.com/1002/live.m3u8"}
                                    ]
                                  }
                                }
                              ]
                            }
                          }
                        }
                      }
                    }
                  }
                }
              },
              {
                "entryId": "tweet-1003",
                "sortIndex": "1830000000000000002",
                "content": {
                  "entryType": "TimelineTimelineItem",
                  "itemContent": {
                    "itemType": "TimelineTweet",
                    "tweet_results": {
                      "result": {
                        "__typename": "Tweet",
                        "rest_id": "1003",
                        "core": {
                          "user_results": {
                            "result": {
                              "__typename": "User",
                              "name": "Linus",
                              "screen_name": "linus",
                              "profile_image_url_https": "https://pbs.twimg.com/profile_images/13/linus_normal.jpg"
                            }
                          }
                        },
                        "legacy": {
                          "id_str": "1003",
                          "created_at": "Fri Oct 12 09:30:00 +0000 2018",
                          "full_text": "This is the way",
                          "retweet_count": 2,
                          "extended_entities": {
                            "media": [
                              {
                                "type": "animated_gif",
                                "media_url_https": "https://pbs.twimg.com/tweet_video_thumb/loop.jpg",
                                "original_info": {"width": 498, "height": 280},
                                "video_info": {
                                  "variants": [
                                    {"content_type": "video/mp4", "bitrate": 0, "url": "https://video.twimg.com/tweet_video/loop.mp4"}
                                  ]
                                }
                              }
                            ]
                          }
                        },
                        "quoted_status_result": {
                          "result": {
                            "__typename": "Tweet",
                            "rest_id": "1004",
                            "core": {
                              "user_results": {
                                "result": {
                                  "__typename": "User",
                                  "legacy": {"name": "Ken Thompson", "screen_name": "ken"}
                                }
                              }
                            },
                            "legacy": {
                              "id_str": "1004",
                              "created_at": "Mon Oct 01 12:00:00 +0000 2018",
                              "full_text": "Write programs that do one thing"
                            }
                          }
                        }
                      }
                    }
                  }
                }
              },
              {
                "entryId": "tweet-1001-rt",
                "sortIndex": "1830000000000000001",
                "content": {
                  "entryType": "TimelineTimelineItem",
                  "itemContent": {
                    "itemType": "TimelineTweet",
                    "tweet_results": {
                      "result": {
                        "__typename": "Tweet",
                        "rest_id": "1001",
                        "legacy": {"id_str": "1001", "full_text": "RT @grace: Compilers are translators"}
                      }
                    }
                  }
                }
              },
              {
                "entryId": "cursor-bottom-1830000000000000000",
                "sortIndex": "1830000000000000000",
                "content": {
                  "entryType": "TimelineTimelineCursor",
                  "value": "HBaAgLyd0pO",
                  "cursorType": "Bottom"
                }
              }
            ]
          }
        ]
      }
    }
  }
}`

// BookmarkTimelineIDs lists the records BookmarkTimeline yields, in order.
var BookmarkTimelineIDs = []string{"1001", "1002", "1003", "1004"}

// ViewerQuery is an unrelated GraphQL response with a user but no tweets.
const ViewerQuery = `{
  "data": {
    "viewer": {
      "user_results": {
        "result": {
          "__typename": "User",
          "rest_id": "42",
          "legacy": {"name": "Me", "screen_name": "me"}
        }
      }
    }
  }
}`

// TombstoneEntry is a bookmarked tweet that was deleted.
const TombstoneEntry = `{
  "entryId": "tweet-2001",
  "content": {
    "itemContent": {
      "tweet_results": {
        "result": {
          "__typename": "TweetTombstone",
          "tombstone": {"text": {"text": "This Post was deleted by the Post author."}}
        }
      }
    }
  }
}`
