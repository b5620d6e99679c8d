package api

const itemFields = `
	id
	title
	url
	date
	thumbnail
	previewContent
	slug
	source { id name url icon type }`

const homeQuery = `query GetHomeItems {
  home {
    __typename
    ... on HomeSuccess {
      edges { node { title layout items {` + itemFields + ` } } }
    }
    ... on HomeError { errorCodes }
  }
}`

const hiddenHomeSectionQuery = `query GetHiddenHomeSection {
  hiddenHomeSection {
    __typename
    ... on HiddenHomeSectionSuccess {
      section { title layout items {` + itemFields + ` } }
    }
    ... on HiddenHomeSectionError { errorCodes }
  }
}`

const subscriptionFields = `id name status description type url icon`

const subscriptionQuery = `query GetSubscription($id: ID!) {
  subscription(id: $id) {
    __typename
    ... on SubscriptionSuccess { subscription { ` + subscriptionFields + ` } }
    ... on SubscriptionError { errorCodes }
  }
}`

const subscriptionsQuery = `query GetSubscriptions {
  subscriptions {
    __typename
    ... on SubscriptionsSuccess { subscriptions { ` + subscriptionFields + ` } }
    ... on SubscriptionsError { errorCodes }
  }
}`

const sendHomeFeedbackMutation = `mutation SendHomeFeedback($input: SendHomeFeedbackInput!) {
  sendHomeFeedback(input: $input) {
    __typename
    ... on SendHomeFeedbackSuccess { message }
    ... on SendHomeFeedbackError { errorCodes }
  }
}`

const articleQuery = `query GetArticle($username: String!, $slug: String!, $format: String) {
  article(username: $username, slug: $slug, format: $format) {
    __typename
    ... on ArticleSuccess { article { title url author content publishedAt savedAt } }
    ... on ArticleError { errorCodes }
  }
}`
