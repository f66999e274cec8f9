package notify

import "strings"

// notificationTemplate is the shared HTML body for subscriber notifications.
const notificationTemplate = `<html>
<body style="font-family: sans-serif;">
  <img src="{{imageUrl}}" alt="" width="80" />
  <h2>{{header}}</h2>
  <p>{{body}}</p>
</body>
</html>`

const defaultImageURL = "https://res.cloudinary.com/devcreed/image/upload/v1668739431/icon-positive-vote-2_jcxdww.svg"

// BuildBody renders the notification template with the given placeholders.
// Unknown placeholders in the map are ignored; placeholders missing from the
// map stay in the output, which makes broken renders visible.
func BuildBody(placeholders map[string]string) string {
	body := notificationTemplate
	for key, value := range placeholders {
		body = strings.ReplaceAll(body, "{{"+key+"}}", value)
	}
	return body
}

// WelcomeNotification renders the welcome message for a new subscriber.
func WelcomeNotification(email, firstName, lastName string) Notification {
	return Notification{
		Destination: email,
		Subject:     "Welcome to Gazify",
		Body: BuildBody(map[string]string{
			"imageUrl": defaultImageURL,
			"header":   "Hey " + firstName + " " + lastName + ",",
			"body":     "welcome " + firstName + ", thanks for joining us",
		}),
	}
}

// RenewalNotification renders the renewal confirmation carrying the new end
// date.
func RenewalNotification(email, firstName, endDate string) Notification {
	return Notification{
		Destination: email,
		Subject:     "Gazify Subscription Renewal",
		Body: BuildBody(map[string]string{
			"imageUrl": defaultImageURL,
			"header":   "Hello " + firstName + ",",
			"body":     "your subscription has been renewed successfully through " + endDate,
		}),
	}
}

// ExpirationNotification renders the approaching-expiry alert.
func ExpirationNotification(email, firstName, endDate string) Notification {
	return Notification{
		Destination: email,
		Subject:     "Gazify Subscription Expiration",
		Body: BuildBody(map[string]string{
			"imageUrl": defaultImageURL,
			"header":   "Hello " + firstName + ",",
			"body":     "your subscription will expire by " + endDate,
		}),
	}
}

// EndDateFormat is how end dates are rendered in notification bodies,
// e.g. "1 Jan, 2025".
const EndDateFormat = "2 Jan, 2006"
