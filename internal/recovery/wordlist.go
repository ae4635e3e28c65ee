package recovery

const wordlistRaw = `
able about above acid acorn acre act adapt
add adore adult after again agent agree ahead
aim air alarm album alert alike alive alley
allow almond alone alpha altar amber amend amuse
anchor angle ankle annual answer antic apart apple
april apron arch arena argue arise armor aroma
array arrow aspect asset atlas atom attic audio
august aunt autumn avenue avid award awake axis
bacon badge bagel baker balance bamboo banana banner
barrel basic basil basket baton battle beach beacon
beam bean beard beast beauty become bedrock beech
begin being belief bell belong bench bend berry
best better beyond bind birch bird birth bishop
bitter black blade blanket blast blaze bless blink
bloom blouse blue board boast bobcat bold bonus
book boost border borrow botany bottle bounce bound
bowl brave bread breeze brick bridge brief bright
bring brisk broad bronze brook brush bubble bucket
buddy budget buffalo build bulb bundle burst bus
bush butter button cabin cable cactus cadet cage
cake camel camera camp canal candle canoe canvas
canyon capital captain carbon card cargo carol carpet
carrot carve castle catalog cause cedar celery cellar
cement census cereal chain chair chalk chapter charm
chart chase cheese chef cherry chess chest chief
child chill choir chorus chrome cinema circle citrus
city civil claim clarify classic clay clean clear
clerk cliff climb clinic clock cloth cloud clover
coach coast cobalt coconut coffee coin collect color
column comet comic compass concert condor cone congress
copper coral corn corner cosmos cotton couch county
course cousin cover cozy crab craft crane crater
cream credit creek crew cricket crisp crop cross
crowd crown cruise crystal cubic culture curtain cushion
custom cycle daily dairy daisy dance dash dawn
debate decade decor deer degree delta denim depth
desert design desk detail device dial diamond diary
diesel digit dinner dome donor double dove dozen
draft dragon drama draw dream dress drift drink
drive drum dual duck dune dusk dust duty
eager eagle early earth east echo eclipse edge
effort eight elbow elder elect eleven elite elm
ember emerald empire enact energy engine enjoy enrich
enter entry envoy equal era essay estate ethics
evening event exact exhibit exit expand expert fabric
falcon family famous fancy farm fashion father fauna
favor feast feather fellow fence fern ferry fever
fiber fiction field fifty figure filter final finch
finger fiscal fish fjord flag flame flash fleet
floor flora flour flute foam focus forest forum
fossil foster found fountain fox frame fresh friday
frost fruit fuel future gadget galaxy gallery garden
garlic gather gauge gazebo gentle genuine giant ginger
give glacier glade glance globe glory glove gold
goose gourd grace grain grand granite grape grasp
gravel great green grid grove guard guest guide
guitar gulf habit hale hammer happy harbor harvest
hatch haven hawk hazel health hearth hedge height
helmet herald herb hero heron hidden hill hinge
hobby hold hollow honey horizon hotel hour house
humble humor hundred hybrid icon idea igloo image
impact index indigo inlet inner insect invite iris
iron island ivory jacket jade jaguar jasmine jelly
jewel joint jolly journal joy judge juice july
`
