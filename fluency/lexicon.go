package fluency

import (
	"fmt"
	"strings"
)

// Cluster labels of the animal taxonomy, in declaration order.
const (
	Farm     = "farm"
	Pets     = "pets"
	African  = "african"
	Ocean    = "ocean"
	Insects  = "insects"
	Birds    = "birds"
	Reptiles = "reptiles"
	Rodents  = "rodents"
	Arctic   = "arctic"
)

// Clusters lists every semantic cluster label.
var Clusters = []string{Farm, Pets, African, Ocean, Insects, Birds, Reptiles, Rodents, Arctic}

type clusterItems struct {
	cluster string
	items   []string
}

var english = []clusterItems{
	{Farm, []string{"cow", "pig", "horse", "sheep", "goat", "chicken", "rooster", "hen", "duck", "donkey", "mule", "turkey"}},
	{Pets, []string{"dog", "cat", "hamster", "rabbit", "goldfish", "parrot", "turtle", "guinea pig", "ferret", "bird"}},
	{African, []string{"lion", "elephant", "giraffe", "zebra", "hippo", "rhino", "cheetah", "leopard", "gorilla", "hyena", "antelope"}},
	{Ocean, []string{"whale", "dolphin", "shark", "octopus", "seal", "fish", "crab", "lobster", "starfish", "jellyfish", "squid"}},
	{Insects, []string{"ant", "bee", "butterfly", "spider", "fly", "mosquito", "beetle", "grasshopper", "cricket", "dragonfly"}},
	{Birds, []string{"eagle", "hawk", "owl", "robin", "sparrow", "crow", "pigeon", "penguin", "flamingo", "pelican", "swan"}},
	{Reptiles, []string{"snake", "lizard", "crocodile", "alligator", "iguana", "gecko", "chameleon", "tortoise", "komodo"}},
	{Rodents, []string{"mouse", "rat", "squirrel", "chipmunk", "beaver", "porcupine", "gopher"}},
	{Arctic, []string{"polar bear", "walrus", "reindeer", "moose", "caribou", "arctic fox", "wolf"}},
}

// Lexicon maps every known item (one or two tokens) to its cluster.
type Lexicon struct {
	cluster map[string]string
}

func newLexicon(groups []clusterItems) (*Lexicon, error) {
	l := &Lexicon{cluster: map[string]string{}}
	for _, g := range groups {
		for _, item := range g.items {
			if n := len(strings.Fields(item)); n < 1 || n > 2 {
				return nil, fmt.Errorf("lexicon: %q has %d tokens", item, n)
			}
			if prev, ok := l.cluster[item]; ok {
				return nil, fmt.Errorf("lexicon: %q in both %s and %s", item, prev, g.cluster)
			}
			l.cluster[item] = g.cluster
		}
	}
	return l, nil
}

func mustLexicon(groups []clusterItems) *Lexicon {
	l, err := newLexicon(groups)
	if err != nil {
		panic(err)
	}
	return l
}

// Animals is the one taxonomy every transcript is scored against, whatever
// its language.
var Animals = mustLexicon(english)

// Len is the number of known items.
func (l *Lexicon) Len() int { return len(l.cluster) }

// Cluster returns the cluster label of item.
func (l *Lexicon) Cluster(item string) (string, bool) {
	c, ok := l.cluster[item]
	return c, ok
}
