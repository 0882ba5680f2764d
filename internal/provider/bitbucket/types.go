package bitbucket

// Bitbucket API structures
type bitbucketLink struct {
	Href string `json:"href"`
}

type bitbucketCommit struct {
	Hash    string `json:"hash"`
	Date    string `json:"date"`
	Message string `json:"message"`
	Parents []struct {
		Hash string `json:"hash"`
	} `json:"parents"`
	Links struct {
		HTML bitbucketLink `json:"html"`
	} `json:"links"`
}

type bitbucketRef struct {
	Name   string          `json:"name"`
	Date   string          `json:"date"`
	Target bitbucketCommit `json:"target"`
	Links  struct {
		HTML bitbucketLink `json:"html"`
	} `json:"links"`
}

type bitbucketRefs struct {
	Values []bitbucketRef `json:"values"`
	Next   string         `json:"next"`
}

type bitbucketRepository struct {
	FullName   string `json:"full_name"`
	MainBranch struct {
		Name string `json:"name"`
	} `json:"mainbranch"`
	Links struct {
		HTML bitbucketLink `json:"html"`
	} `json:"links"`
}

type bitbucketDiffStat struct {
	Status       string `json:"status"`
	LinesAdded   int    `json:"lines_added"`
	LinesRemoved int    `json:"lines_removed"`
	Old          *struct {
		Path string `json:"path"`
	} `json:"old"`
	New *struct {
		Path string `json:"path"`
	} `json:"new"`
}

type bitbucketDiffStats struct {
	Values []bitbucketDiffStat `json:"values"`
	Next   string              `json:"next"`
}

type bitbucketCreateTag struct {
	Name    string `json:"name"`
	Message string `json:"message,omitempty"`
	Target  struct {
		Hash string `json:"hash"`
	} `json:"target"`
}
