package model

// ChannelProfile is the fixed projection returned for a channel page.
type ChannelProfile struct {
	FullName                  string `json:"fullName"`
	UserName                  string `json:"userName"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	Email                     string `json:"email"`
}

// Subscription is one row of `subscriptions`: Subscriber follows Channel.
type Subscription struct {
	SubscriberID string
	ChannelID    string
}
